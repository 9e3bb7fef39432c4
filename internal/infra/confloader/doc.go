// Package confloader provides configuration loading for quiesced.
//
// It uses koanf for flexible configuration loading from multiple
// sources with priority: Flag > Env > File > Default. A fsnotify-based
// watcher re-applies reloadable settings (log level) when the
// configuration file changes on disk.
package confloader
