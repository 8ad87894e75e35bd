// Package registry implements the image copyright registry and its on-chain counterpart.
//
// Registry is the authoritative in-process implementation of
// interfaces.ImageRegistry. It keeps every ImageRecord in id order together
// with a unique content hash index, and is event sourced: each successful
// register or update is appended to an interfaces.EventJournal before it is
// applied, and NewRegistry rebuilds state by replaying that journal.
//
// Invariants enforced by Registry:
//
//   - a content hash is registered at most once; the first registration wins
//   - ids are assigned densely from 1 in commit order
//   - only the author may change the title and description of a record
//   - id, content hash, author and creation time never change
//   - records are never deleted
//
// Subscribers receive a notification for every committed mutation, in
// commit order. Delivery is synchronous, so subscribers must keep reading.
//
// # On-chain operation
//
// The same registry can be run as the ImageCopyright EVM contract.
// OnchainRegistryClient implements interfaces.RegistryProvider on top of the
// generated binding in bindings/imagecopyright and maps contract revert
// reasons back to registry errors. State-modifying methods need transaction
// options set with SetTransactOpts.
//
//	eth, _ := ethclient.Dial(rpcAddr)
//	client, _ := registry.NewOnchainRegistryClient(eth, eth, contractAddr)
//	client.SetTransactOpts(auth)
//	id, err := client.Register(ctx, contentHash, "Beach", "sunset")
package registry
