package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ruteri/image-copyright-registry/api"
	"github.com/ruteri/image-copyright-registry/api/clients"
	"github.com/ruteri/image-copyright-registry/cmd/flags"
	"github.com/ruteri/image-copyright-registry/identity"
	"github.com/ruteri/image-copyright-registry/interfaces"
	"github.com/ruteri/image-copyright-registry/registry"
	"github.com/ruteri/image-copyright-registry/storage"
	"github.com/urfave/cli/v2"
)

var flagServerAddr = &cli.StringFlag{
	Name:  "server-addr",
	Value: "http://127.0.0.1:8080",
	Usage: "registry API address",
}
var flagKey = &cli.StringFlag{
	Name:    "key",
	EnvVars: []string{"REGISTRY_PRIVATE_KEY"},
	Usage:   "hex-encoded secp256k1 private key that signs mutating calls",
}
var flagContract = &cli.StringFlag{
	Name:  "contract",
	Usage: "ImageCopyright contract address. When set, the client talks to the chain at --rpc-addr instead of the API",
}

var flagTitle = &cli.StringFlag{
	Name:     "title",
	Required: true,
	Usage:    "image title",
}
var flagDescription = &cli.StringFlag{
	Name:  "description",
	Usage: "image description",
}
var flagHash = &cli.StringFlag{
	Name:  "hash",
	Usage: "register an already stored content hash instead of uploading a file",
}
var flagFile = &cli.StringFlag{
	Name:  "file",
	Usage: "compute the content hash from a local image",
}
var flagAuthor = &cli.StringFlag{
	Name:  "author",
	Usage: "only list images registered by this address",
}
var flagMine = &cli.BoolFlag{
	Name:  "mine",
	Usage: "only list images registered by --key",
}
var flagAfter = &cli.Uint64Flag{
	Name:  "after",
	Usage: "sequence number of the last event already seen",
}
var flagLimit = &cli.IntFlag{
	Name:  "limit",
	Value: 100,
	Usage: "maximum number of events to return",
}

const usage string = `Register images and query the image copyright registry`

func main() {
	app := &cli.App{
		Name:  "registry-client",
		Usage: usage,
		Flags: append([]cli.Flag{
			flagServerAddr,
			flagKey,
			flagContract,
			flags.RpcAddrFlag,
			flags.ContentStoreFlag,
		}, flags.LogFlags...),
		Commands: []*cli.Command{
			{
				Name:      "register",
				Usage:     "store an image and register its content hash",
				ArgsUsage: "[image file]",
				Flags:     []cli.Flag{flagTitle, flagDescription, flagHash},
				Action:    withClient((*Client).Register),
			},
			{
				Name:      "update",
				Usage:     "change the title and description of an image you registered",
				ArgsUsage: "<id>",
				Flags:     []cli.Flag{flagTitle, flagDescription},
				Action:    withClient((*Client).Update),
			},
			{
				Name:      "get",
				Usage:     "show the record with the given id",
				ArgsUsage: "<id>",
				Action:    withClient((*Client).Get),
			},
			{
				Name:      "get-by-hash",
				Usage:     "show the record with the given content hash",
				ArgsUsage: "<content hash>",
				Action:    withClient((*Client).GetByHash),
			},
			{
				Name:      "verify",
				Usage:     "check whether an image is registered and by whom",
				ArgsUsage: "[content hash]",
				Flags:     []cli.Flag{flagFile},
				Action:    withClient((*Client).Verify),
			},
			{
				Name:   "list",
				Usage:  "list registered images",
				Flags:  []cli.Flag{flagAuthor, flagMine},
				Action: withClient((*Client).List),
			},
			{
				Name:   "stats",
				Usage:  "show the total number of images and the number registered by --key",
				Action: withClient((*Client).Stats),
			},
			{
				Name:   "history",
				Usage:  "print journaled registry events",
				Flags:  []cli.Flag{flagAfter, flagLimit},
				Action: withClient((*Client).History),
			},
			{
				Name:   "watch",
				Usage:  "print registry events as they happen",
				Flags:  []cli.Flag{flagAfter},
				Action: withClient((*Client).Watch),
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// Client runs commands against either the registry API or the on-chain
// contract. Exactly one of API and Chain is set.
type Client struct {
	Provider interfaces.RegistryProvider
	API      *clients.RegistryClient
	Chain    *registry.OnchainRegistryClient
	Signer   *identity.KeySigner
	Store    interfaces.ContentStore

	log *slog.Logger
}

func withClient(action func(*Client, *cli.Context) error) cli.ActionFunc {
	return func(cCtx *cli.Context) error {
		c, err := NewClient(cCtx)
		if err != nil {
			return err
		}
		return action(c, cCtx)
	}
}

func NewClient(cCtx *cli.Context) (*Client, error) {
	c := &Client{log: flags.SetupLogger(cCtx)}

	if hexKey := cCtx.String(flagKey.Name); hexKey != "" {
		signer, err := identity.NewKeySignerFromHex(hexKey)
		if err != nil {
			return nil, fmt.Errorf("could not load key: %w", err)
		}
		c.Signer = signer
	}

	if uris := cCtx.StringSlice(flags.ContentStoreFlag.Name); len(uris) > 0 {
		locations := make([]interfaces.StorageBackendLocation, 0, len(uris))
		for _, uri := range uris {
			loc, err := interfaces.NewStorageBackendLocation(uri)
			if err != nil {
				return nil, fmt.Errorf("content store %q: %w", uri, err)
			}
			locations = append(locations, loc)
		}
		store, err := storage.NewContentStoreFactory(c.log).CreateMultiStore(locations)
		if err != nil {
			return nil, err
		}
		c.Store = store
	}

	if cCtx.String(flagContract.Name) == "" {
		var signer interfaces.Signer
		if c.Signer != nil {
			signer = c.Signer
		}
		c.API = clients.NewRegistryClient(cCtx.String(flagServerAddr.Name), signer)
		c.Provider = c.API
		return c, nil
	}

	contract, err := interfaces.NewContractAddressFromHex(cCtx.String(flagContract.Name))
	if err != nil {
		return nil, fmt.Errorf("could not parse contract address: %w", err)
	}

	ethClient, err := ethclient.DialContext(cCtx.Context, cCtx.String(flags.RpcAddrFlag.Name))
	if err != nil {
		return nil, fmt.Errorf("could not dial RPC: %w", err)
	}

	var auth *bind.TransactOpts
	if c.Signer != nil {
		chainID, err := ethClient.ChainID(cCtx.Context)
		if err != nil {
			return nil, fmt.Errorf("could not fetch chain id: %w", err)
		}
		auth, err = bind.NewKeyedTransactorWithChainID(c.Signer.PrivateKey(), chainID)
		if err != nil {
			return nil, err
		}
	}

	chain, err := registry.NewRegistryFactory(ethClient, ethClient, auth).RegistryFor(contract)
	if err != nil {
		return nil, err
	}
	c.Chain = chain
	c.Provider = chain
	return c, nil
}

func (c *Client) Register(cCtx *cli.Context) error {
	title := cCtx.String(flagTitle.Name)
	description := cCtx.String(flagDescription.Name)

	if hash := cCtx.String(flagHash.Name); hash != "" {
		id, err := c.Provider.Register(cCtx.Context, hash, title, description)
		if err != nil {
			return fmt.Errorf("registration failed: %w", err)
		}
		return printJSON(api.RegisterResponse{ID: id, ContentHash: hash})
	}

	if cCtx.NArg() != 1 {
		return errors.New("register needs an image file or --hash")
	}
	path := cCtx.Args().First()
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	if c.API != nil {
		resp, err := c.API.Upload(cCtx.Context, filepath.Base(path), data, title, description)
		if err != nil {
			return fmt.Errorf("upload failed: %w", err)
		}
		return printJSON(resp)
	}

	// On chain the image has to be stored before its hash is registered.
	if _, err := storage.DetectImageType(data); err != nil {
		return err
	}
	if c.Store == nil {
		return errors.New("registering a file on chain needs at least one --content-store")
	}
	hash, err := c.Store.Put(cCtx.Context, data)
	if err != nil {
		return fmt.Errorf("could not store image: %w", err)
	}
	c.log.Info("Image stored", "contentHash", hash, "store", c.Store.Name())

	id, err := c.Chain.Register(cCtx.Context, hash, title, description)
	if err != nil {
		return fmt.Errorf("registration failed: %w", err)
	}
	return printJSON(api.RegisterResponse{ID: id, ContentHash: hash, URL: c.Store.Resolve(hash)})
}

func (c *Client) Update(cCtx *cli.Context) error {
	id, err := idArg(cCtx)
	if err != nil {
		return err
	}
	err = c.Provider.Update(cCtx.Context, id, cCtx.String(flagTitle.Name), cCtx.String(flagDescription.Name))
	if err != nil {
		return fmt.Errorf("update failed: %w", err)
	}
	record, err := c.Provider.GetByID(cCtx.Context, id)
	if err != nil {
		return err
	}
	return printJSON(record)
}

func (c *Client) Get(cCtx *cli.Context) error {
	id, err := idArg(cCtx)
	if err != nil {
		return err
	}
	record, err := c.Provider.GetByID(cCtx.Context, id)
	if err != nil {
		return err
	}
	return printJSON(record)
}

func (c *Client) GetByHash(cCtx *cli.Context) error {
	if cCtx.NArg() != 1 {
		return errors.New("get-by-hash needs a content hash")
	}
	record, err := c.Provider.GetByHash(cCtx.Context, cCtx.Args().First())
	if err != nil {
		return err
	}
	return printJSON(record)
}

func (c *Client) Verify(cCtx *cli.Context) error {
	hash := cCtx.Args().First()
	if path := cCtx.String(flagFile.Name); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		hash, err = interfaces.ComputeContentHash(data)
		if err != nil {
			return err
		}
	}
	if hash == "" {
		return errors.New("verify needs a content hash or --file")
	}

	if c.API != nil {
		resp, err := c.API.Verify(cCtx.Context, hash)
		if err != nil {
			return err
		}
		return printJSON(resp)
	}

	resp := api.VerifyResponse{ContentHash: hash}
	registered, err := c.Chain.Exists(cCtx.Context, hash)
	if err != nil {
		return err
	}
	if registered {
		resp.Record, err = c.Chain.GetByHash(cCtx.Context, hash)
		if err != nil {
			return err
		}
		resp.Registered = true
	}
	return printJSON(resp)
}

func (c *Client) List(cCtx *cli.Context) error {
	var (
		records []interfaces.ImageRecord
		err     error
	)

	switch {
	case cCtx.Bool(flagMine.Name):
		if c.Signer == nil {
			return errors.New("--mine needs --key")
		}
		records, err = c.Provider.ListByAuthor(cCtx.Context, c.Signer.Identity())
	case cCtx.String(flagAuthor.Name) != "":
		author, perr := interfaces.NewIdentityFromHex(cCtx.String(flagAuthor.Name))
		if perr != nil {
			return fmt.Errorf("could not parse author: %w", perr)
		}
		records, err = c.Provider.ListByAuthor(cCtx.Context, author)
	default:
		records, err = c.Provider.ListAll(cCtx.Context)
	}
	if err != nil {
		return err
	}
	return printJSON(records)
}

func (c *Client) Stats(cCtx *cli.Context) error {
	stats, err := c.Provider.Stats(cCtx.Context)
	if err != nil {
		return err
	}
	return printJSON(stats)
}

func (c *Client) History(cCtx *cli.Context) error {
	if c.API == nil {
		return errors.New("history is served by the registry API only")
	}
	resp, err := c.API.History(cCtx.Context, cCtx.Uint64(flagAfter.Name), cCtx.Int(flagLimit.Name))
	if err != nil {
		return err
	}
	return printJSON(resp)
}

func (c *Client) Watch(cCtx *cli.Context) error {
	ctx, stop := signal.NotifyContext(cCtx.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	events := make(chan interfaces.RegistryEvent)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for ev := range events {
			if err := printJSON(ev); err != nil {
				c.log.Error("Could not print event", "err", err)
			}
		}
	}()
	defer func() {
		close(events)
		<-done
	}()

	if c.Chain != nil {
		return c.Chain.Watch(ctx, events)
	}

	after := cCtx.Uint64(flagAfter.Name)
	for {
		last, err := c.API.Watch(ctx, after, events)
		after = last
		if ctx.Err() != nil {
			return nil
		}
		if errors.Is(err, io.EOF) {
			c.log.Info("Event stream closed, reconnecting", "after", after)
		} else {
			c.log.Warn("Event stream failed, reconnecting", "err", err, "after", after)
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(time.Second):
		}
	}
}

func idArg(cCtx *cli.Context) (uint64, error) {
	if cCtx.NArg() != 1 {
		return 0, errors.New("expected an image id")
	}
	id, err := strconv.ParseUint(cCtx.Args().First(), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid image id: %w", err)
	}
	return id, nil
}

func printJSON(v any) error {
	encoded, err := json.Marshal(v)
	if err != nil {
		return err
	}
	fmt.Println(string(encoded))
	return nil
}
