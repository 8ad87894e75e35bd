package registry

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/ruteri/image-copyright-registry/bindings/imagecopyright"
	"github.com/ruteri/image-copyright-registry/interfaces"
)

// ErrNoTransactOpts is returned when a transaction is attempted without first setting transaction options.
var ErrNoTransactOpts = errors.New("no authorized transactor available")

// Revert reasons raised by the ImageCopyright contract.
const (
	RevertEmptyHash    = "IPFS hash cannot be empty"
	RevertEmptyTitle   = "Title cannot be empty"
	RevertDuplicate    = "This image hash already exists"
	RevertNotAuthor    = "Only author can update"
	RevertDoesNotExist = "Image does not exist"
)

// OnchainRegistryClient implements interfaces.RegistryProvider against an
// ImageCopyright contract deployed on an EVM chain.
type OnchainRegistryClient struct {
	contract *imagecopyright.ImageCopyright
	client   bind.ContractBackend
	backend  bind.DeployBackend
	address  common.Address
	auth     *bind.TransactOpts
}

var _ interfaces.RegistryProvider = (*OnchainRegistryClient)(nil)

// NewOnchainRegistryClient creates a client for the contract at address. The
// DeployBackend is used to wait for transaction receipts.
func NewOnchainRegistryClient(client bind.ContractBackend, backend bind.DeployBackend, address common.Address) (*OnchainRegistryClient, error) {
	contract, err := imagecopyright.NewImageCopyright(address, client)
	if err != nil {
		return nil, err
	}

	return &OnchainRegistryClient{
		contract: contract,
		client:   client,
		backend:  backend,
		address:  address,
	}, nil
}

// SetTransactOpts sets the transaction options required for functions that modify state.
// The sender of auth is also used as the caller for Stats.
func (c *OnchainRegistryClient) SetTransactOpts(auth *bind.TransactOpts) {
	c.auth = auth
}

func (c *OnchainRegistryClient) callOpts(ctx context.Context) *bind.CallOpts {
	opts := &bind.CallOpts{Context: ctx}
	if c.auth != nil {
		opts.From = c.auth.From
	}
	return opts
}

func (c *OnchainRegistryClient) transactOpts(ctx context.Context) (*bind.TransactOpts, error) {
	if c.auth == nil {
		return nil, ErrNoTransactOpts
	}
	opts := *c.auth
	opts.Context = ctx
	return &opts, nil
}

func (c *OnchainRegistryClient) waitSuccessful(ctx context.Context, tx *types.Transaction) (*types.Receipt, error) {
	receipt, err := bind.WaitMined(ctx, c.backend, tx)
	if err != nil {
		return nil, fmt.Errorf("waiting for transaction %s: %w", tx.Hash().Hex(), err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return nil, fmt.Errorf("transaction %s reverted", tx.Hash().Hex())
	}
	return receipt, nil
}

// Register sends uploadImage and returns the id carried by the ImageUploaded event.
func (c *OnchainRegistryClient) Register(ctx context.Context, contentHash, title, description string) (uint64, error) {
	opts, err := c.transactOpts(ctx)
	if err != nil {
		return 0, err
	}

	tx, err := c.contract.UploadImage(opts, contentHash, title, description)
	if err != nil {
		return 0, mapContractError(err)
	}

	receipt, err := c.waitSuccessful(ctx, tx)
	if err != nil {
		return 0, err
	}

	for _, log := range receipt.Logs {
		uploaded, err := c.contract.ParseImageUploaded(*log)
		if err != nil {
			continue
		}
		return uploaded.Id.Uint64(), nil
	}
	return 0, fmt.Errorf("no ImageUploaded event in transaction %s", tx.Hash().Hex())
}

func (c *OnchainRegistryClient) Update(ctx context.Context, id uint64, title, description string) error {
	opts, err := c.transactOpts(ctx)
	if err != nil {
		return err
	}

	tx, err := c.contract.UpdateImageInfo(opts, new(big.Int).SetUint64(id), title, description)
	if err != nil {
		return mapContractError(err)
	}

	_, err = c.waitSuccessful(ctx, tx)
	return err
}

func (c *OnchainRegistryClient) GetByID(ctx context.Context, id uint64) (*interfaces.ImageRecord, error) {
	img, err := c.contract.GetImage(c.callOpts(ctx), new(big.Int).SetUint64(id))
	if err != nil {
		return nil, mapContractError(err)
	}
	rec := recordFromContract(img)
	return &rec, nil
}

func (c *OnchainRegistryClient) GetByHash(ctx context.Context, contentHash string) (*interfaces.ImageRecord, error) {
	img, err := c.contract.GetImageByHash(c.callOpts(ctx), contentHash)
	if err != nil {
		return nil, mapContractError(err)
	}
	rec := recordFromContract(img)
	return &rec, nil
}

func (c *OnchainRegistryClient) Exists(ctx context.Context, contentHash string) (bool, error) {
	exists, err := c.contract.VerifyImageHash(c.callOpts(ctx), contentHash)
	if err != nil {
		return false, mapContractError(err)
	}
	return exists, nil
}

func (c *OnchainRegistryClient) ListAll(ctx context.Context) ([]interfaces.ImageRecord, error) {
	images, err := c.contract.GetAllImages(c.callOpts(ctx))
	if err != nil {
		return nil, mapContractError(err)
	}
	return recordsFromContract(images), nil
}

func (c *OnchainRegistryClient) ListByAuthor(ctx context.Context, author interfaces.Identity) ([]interfaces.ImageRecord, error) {
	images, err := c.contract.GetImagesByAuthor(c.callOpts(ctx), common.Address(author))
	if err != nil {
		return nil, mapContractError(err)
	}
	return recordsFromContract(images), nil
}

func (c *OnchainRegistryClient) Stats(ctx context.Context) (interfaces.RegistryStats, error) {
	stats, err := c.contract.GetStats(c.callOpts(ctx))
	if err != nil {
		return interfaces.RegistryStats{}, mapContractError(err)
	}
	return interfaces.RegistryStats{
		TotalCount:  stats.TotalImages.Uint64(),
		CallerCount: stats.UserImages.Uint64(),
	}, nil
}

// ImageCount returns the contract's image counter.
func (c *OnchainRegistryClient) ImageCount(ctx context.Context) (uint64, error) {
	count, err := c.contract.ImageCount(c.callOpts(ctx))
	if err != nil {
		return 0, mapContractError(err)
	}
	return count.Uint64(), nil
}

// Watch forwards contract events to sink as registry notifications until ctx
// is cancelled or a subscription fails.
func (c *OnchainRegistryClient) Watch(ctx context.Context, sink chan<- interfaces.RegistryEvent) error {
	opts := &bind.WatchOpts{Context: ctx}

	uploaded := make(chan *imagecopyright.ImageCopyrightImageUploaded)
	uploadedSub, err := c.contract.WatchImageUploaded(opts, uploaded, nil, nil)
	if err != nil {
		return fmt.Errorf("could not watch ImageUploaded: %w", err)
	}
	defer uploadedSub.Unsubscribe()

	updated := make(chan *imagecopyright.ImageCopyrightImageUpdated)
	updatedSub, err := c.contract.WatchImageUpdated(opts, updated, nil)
	if err != nil {
		return fmt.Errorf("could not watch ImageUpdated: %w", err)
	}
	defer updatedSub.Unsubscribe()

	for {
		var ev interfaces.RegistryEvent
		select {
		case u := <-uploaded:
			ev = interfaces.RegistryEvent{
				Kind:        interfaces.EventRegistered,
				ID:          u.Id.Uint64(),
				ContentHash: u.IpfsHash,
				Title:       u.Title,
				Author:      interfaces.Identity(u.Author),
				CreatedAt:   time.Unix(u.Timestamp.Int64(), 0).UTC(),
			}
		case u := <-updated:
			ev = interfaces.RegistryEvent{
				Kind:        interfaces.EventUpdated,
				ID:          u.Id.Uint64(),
				Title:       u.Title,
				Description: u.Description,
			}
		case err := <-uploadedSub.Err():
			return err
		case err := <-updatedSub.Err():
			return err
		case <-ctx.Done():
			return nil
		}

		select {
		case sink <- ev:
		case <-ctx.Done():
			return nil
		}
	}
}

func recordFromContract(img imagecopyright.ImageCopyrightImage) interfaces.ImageRecord {
	return interfaces.ImageRecord{
		ID:          img.Id.Uint64(),
		ContentHash: img.IpfsHash,
		Title:       img.Title,
		Description: img.Description,
		Author:      interfaces.Identity(img.Author),
		CreatedAt:   time.Unix(img.Timestamp.Int64(), 0).UTC(),
	}
}

func recordsFromContract(images []imagecopyright.ImageCopyrightImage) []interfaces.ImageRecord {
	records := make([]interfaces.ImageRecord, 0, len(images))
	for _, img := range images {
		records = append(records, recordFromContract(img))
	}
	return records
}

// mapContractError classifies a revert reason into the registry error taxonomy.
func mapContractError(err error) error {
	msg := err.Error()
	switch {
	case strings.Contains(msg, RevertEmptyHash), strings.Contains(msg, RevertEmptyTitle):
		return fmt.Errorf("%w: %v", interfaces.ErrInvalidArgument, err)
	case strings.Contains(msg, RevertDuplicate):
		return fmt.Errorf("%w: %v", interfaces.ErrDuplicateContent, err)
	case strings.Contains(msg, RevertNotAuthor):
		return fmt.Errorf("%w: %v", interfaces.ErrUnauthorized, err)
	case strings.Contains(msg, "does not exist"), strings.Contains(msg, "not found"):
		return fmt.Errorf("%w: %v", interfaces.ErrNotFound, err)
	}
	return err
}

// RegistryFactory creates OnchainRegistryClient instances for different contract addresses.
type RegistryFactory struct {
	client  bind.ContractBackend
	backend bind.DeployBackend
	auth    *bind.TransactOpts
}

// NewRegistryFactory creates a new factory for registry clients. auth may be
// nil for read-only clients.
func NewRegistryFactory(client bind.ContractBackend, backend bind.DeployBackend, auth *bind.TransactOpts) *RegistryFactory {
	return &RegistryFactory{client: client, backend: backend, auth: auth}
}

// RegistryFor returns a client for the contract at address.
func (f *RegistryFactory) RegistryFor(address interfaces.ContractAddress) (*OnchainRegistryClient, error) {
	c, err := NewOnchainRegistryClient(f.client, f.backend, common.Address(address))
	if err != nil {
		return nil, err
	}
	if f.auth != nil {
		c.SetTransactOpts(f.auth)
	}
	return c, nil
}
