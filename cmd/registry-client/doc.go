// Package main (cmd/registry-client) is a command line client for the image
// copyright registry.
//
// By default it talks to the registry API at --server-addr. With --contract it
// talks to an ImageCopyright contract through the node at --rpc-addr; in that
// mode "register <file>" first stores the image in the --content-store
// backends and then registers the returned hash with an uploadImage
// transaction.
//
// Mutating commands are signed with the key given by --key or the
// REGISTRY_PRIVATE_KEY environment variable:
//
//	registry-client --key $KEY register --title "Sunset" sunset.png
//	registry-client --key $KEY update --title "Sunset over the bay" 1
//	registry-client verify --file sunset.png
//	registry-client list --author 0x5B38Da6a701c568545dCfcB03FcB875f56beddC4
//	registry-client watch --after 42
//
// Every command prints its result as JSON on stdout.
package main
