// Package rpcserver provides the gRPC-compatible RPC server for quiesced.
//
// The server speaks the Connect, gRPC, and gRPC-Web protocols over a
// single HTTP port (h2c for plaintext HTTP/2). It exposes the standard
// health service, server reflection, and the Prometheus metrics endpoint.
//
// All connections are accepted through a tracker-wrapped listener so the
// lifecycle coordinator can observe in-flight work. The server never calls
// http.Server.Shutdown; draining is driven entirely by the tracker: when
// draining begins the health service flips to NOT_SERVING and HTTP
// keep-alives are disabled so idle connections fall away on their own.
package rpcserver
