/*
Package clients provides the Go client for the image registry HTTP API.

RegistryClient implements interfaces.RegistryProvider, so code written against
the registry can run unchanged in process (registry.Registry.Bound), over
HTTP, or against the on-chain contract (registry.OnchainRegistryClient).

Mutating calls are signed with an interfaces.Signer (see package identity).
Error responses are mapped back to the registry sentinel errors, so callers
classify failures with errors.Is exactly as they would in process:

	signer, _ := identity.NewKeySignerFromHex(os.Getenv("REGISTRY_KEY"))
	client := clients.NewRegistryClient("http://localhost:8080", signer)

	id, err := client.Register(ctx, contentHash, "Sunset", "Taken at dusk")
	if errors.Is(err, interfaces.ErrDuplicateContent) {
	    // someone registered these bytes first
	}

Watch follows the server-sent event stream and can resume from the last
sequence number it returned.
*/
package clients
