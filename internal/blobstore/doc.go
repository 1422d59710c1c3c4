// Package blobstore persists document bytes in durable object storage and
// issues signed retrieval URLs. The GCS backend serves production; the
// local backend keeps dev and tests off the network.
package blobstore
