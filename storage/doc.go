// Package storage provides the content stores images are uploaded to before
// they are registered.
//
// Every store is content addressed. The address of a payload is a CIDv1 with
// the raw codec over a sha2-256 multihash (see interfaces.ComputeContentHash),
// so the same bytes map to the same hash whichever store holds them.
//
// Stores are selected with location URIs:
//
//   - file:///var/lib/registry/images/
//   - s3://[ACCESS_KEY:SECRET_KEY@]bucket-name/prefix/?region=us-west-2&endpoint=http://minio:9000
//   - ipfs://127.0.0.1:5001/?gateway=https://ipfs.io&timeout=30s
//   - vault://vault.example.com:8200/secret/images?token=...
//
// The IPFS store pins through the node API with raw leaves, so images that fit
// in a single chunk (256KiB) get the same hash as the other stores. Larger
// images are chunked and receive the CID of their DAG root.
//
// A MultiContentStore fans writes out to every available store and reads from
// the first one holding the content:
//
//	factory := storage.NewContentStoreFactory(logger)
//	store, err := factory.CreateMultiStore(locations)
//	if err != nil {
//	    log.Fatalf("Failed to create content store: %v", err)
//	}
//	contentHash, err := store.Put(ctx, imageBytes)
package storage
