package registry

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/event"
	"go.uber.org/atomic"

	"github.com/ruteri/image-copyright-registry/bindings/imagecopyright"
	"github.com/ruteri/image-copyright-registry/interfaces"
)

const simulatedGasLimit = 500_000

// ContractSimulator serves the ImageCopyright contract ABI from an in-process
// Registry. It implements bind.ContractBackend and bind.DeployBackend, so the
// generated binding and OnchainRegistryClient run against it unchanged.
//
// Transactions execute as soon as they are sent and each one is sealed in its
// own block. A reverting transaction is rejected by SendTransaction with the
// contract's revert reason, as an automining development chain does.
type ContractSimulator struct {
	registry *Registry
	address  common.Address
	chainID  *big.Int
	abi      *abi.ABI

	logSubscriptions atomic.Int32

	mu       sync.Mutex
	block    uint64
	nonces   map[common.Address]uint64
	receipts map[common.Hash]*types.Receipt
}

var (
	_ bind.ContractBackend = (*ContractSimulator)(nil)
	_ bind.DeployBackend   = (*ContractSimulator)(nil)
)

// RevertError carries a contract revert reason.
type RevertError struct {
	Reason string
}

func (e *RevertError) Error() string {
	return "execution reverted: " + e.Reason
}

func NewContractSimulator(registry *Registry, address common.Address, chainID *big.Int) (*ContractSimulator, error) {
	parsed, err := imagecopyright.ImageCopyrightMetaData.GetAbi()
	if err != nil {
		return nil, err
	}
	return &ContractSimulator{
		registry: registry,
		address:  address,
		chainID:  chainID,
		abi:      parsed,
		nonces:   make(map[common.Address]uint64),
		receipts: make(map[common.Hash]*types.Receipt),
	}, nil
}

// Address returns the address the simulated contract is deployed at.
func (s *ContractSimulator) Address() common.Address {
	return s.address
}

// LogSubscriptions returns the number of live SubscribeFilterLogs subscriptions.
func (s *ContractSimulator) LogSubscriptions() int {
	return int(s.logSubscriptions.Load())
}

func (s *ContractSimulator) code(account common.Address) []byte {
	if account == s.address {
		return []byte{0x60, 0x80, 0x60, 0x40}
	}
	return nil
}

func (s *ContractSimulator) CodeAt(ctx context.Context, contract common.Address, blockNumber *big.Int) ([]byte, error) {
	return s.code(contract), nil
}

func (s *ContractSimulator) PendingCodeAt(ctx context.Context, account common.Address) ([]byte, error) {
	return s.code(account), nil
}

func (s *ContractSimulator) PendingNonceAt(ctx context.Context, account common.Address) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nonces[account], nil
}

func (s *ContractSimulator) HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return &types.Header{
		Number:   new(big.Int).SetUint64(s.block),
		GasLimit: 30_000_000,
		Time:     uint64(time.Now().Unix()),
	}, nil
}

func (s *ContractSimulator) SuggestGasPrice(ctx context.Context) (*big.Int, error) {
	return big.NewInt(1), nil
}

func (s *ContractSimulator) SuggestGasTipCap(ctx context.Context) (*big.Int, error) {
	return big.NewInt(1), nil
}

func (s *ContractSimulator) EstimateGas(ctx context.Context, call ethereum.CallMsg) (uint64, error) {
	return simulatedGasLimit, nil
}

func (s *ContractSimulator) method(data []byte) (*abi.Method, []interface{}, error) {
	if len(data) < 4 {
		return nil, nil, errors.New("missing method selector")
	}
	method, err := s.abi.MethodById(data[:4])
	if err != nil {
		return nil, nil, err
	}
	args, err := method.Inputs.Unpack(data[4:])
	if err != nil {
		return nil, nil, fmt.Errorf("could not unpack %s arguments: %w", method.Name, err)
	}
	return method, args, nil
}

// CallContract executes a view method against the registry. call.From is the
// caller seen by getStats.
func (s *ContractSimulator) CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	if call.To == nil || *call.To != s.address {
		return nil, nil
	}
	method, args, err := s.method(call.Data)
	if err != nil {
		return nil, err
	}

	switch method.Name {
	case "getImage":
		rec, err := s.registry.GetByID(ctx, args[0].(*big.Int).Uint64())
		if err != nil {
			return nil, revertFor(err)
		}
		return method.Outputs.Pack(contractImage(*rec))
	case "getImageByHash":
		rec, err := s.registry.GetByHash(ctx, args[0].(string))
		if err != nil {
			return nil, revertFor(err)
		}
		return method.Outputs.Pack(contractImage(*rec))
	case "verifyImageHash":
		exists, err := s.registry.Exists(ctx, args[0].(string))
		if err != nil {
			return nil, err
		}
		return method.Outputs.Pack(exists)
	case "getAllImages":
		records, err := s.registry.ListAll(ctx)
		if err != nil {
			return nil, err
		}
		return method.Outputs.Pack(contractImages(records))
	case "getImagesByAuthor":
		records, err := s.registry.ListByAuthor(ctx, interfaces.Identity(args[0].(common.Address)))
		if err != nil {
			return nil, err
		}
		return method.Outputs.Pack(contractImages(records))
	case "getStats":
		stats, err := s.registry.Stats(ctx, interfaces.Identity(call.From))
		if err != nil {
			return nil, err
		}
		return method.Outputs.Pack(new(big.Int).SetUint64(stats.TotalCount), new(big.Int).SetUint64(stats.CallerCount))
	case "imageCount":
		stats, err := s.registry.Stats(ctx, interfaces.Identity{})
		if err != nil {
			return nil, err
		}
		return method.Outputs.Pack(new(big.Int).SetUint64(stats.TotalCount))
	default:
		return nil, fmt.Errorf("method %s cannot be called without a transaction", method.Name)
	}
}

// SendTransaction executes uploadImage or updateImageInfo on behalf of the
// transaction sender and records a receipt carrying the emitted event.
func (s *ContractSimulator) SendTransaction(ctx context.Context, tx *types.Transaction) error {
	if tx.To() == nil || *tx.To() != s.address {
		return errors.New("transaction is not addressed to the registry contract")
	}
	from, err := types.Sender(types.LatestSignerForChainID(s.chainID), tx)
	if err != nil {
		return fmt.Errorf("invalid transaction signature: %w", err)
	}
	caller := interfaces.Identity(from)

	method, args, err := s.method(tx.Data())
	if err != nil {
		return err
	}

	var ev interfaces.RegistryEvent
	switch method.Name {
	case "uploadImage":
		contentHash, title, description := args[0].(string), args[1].(string), args[2].(string)
		if contentHash == "" {
			return &RevertError{Reason: RevertEmptyHash}
		}
		if title == "" {
			return &RevertError{Reason: RevertEmptyTitle}
		}
		id, err := s.registry.Register(ctx, contentHash, title, description, caller)
		if err != nil {
			return revertFor(err)
		}
		rec, err := s.registry.GetByID(ctx, id)
		if err != nil {
			return err
		}
		ev = interfaces.RegistryEvent{
			Kind:        interfaces.EventRegistered,
			ID:          rec.ID,
			ContentHash: rec.ContentHash,
			Title:       rec.Title,
			Description: rec.Description,
			Author:      rec.Author,
			CreatedAt:   rec.CreatedAt,
		}
	case "updateImageInfo":
		id, title, description := args[0].(*big.Int).Uint64(), args[1].(string), args[2].(string)
		if err := s.registry.Update(ctx, id, title, description, caller); err != nil {
			return revertFor(err)
		}
		ev = interfaces.RegistryEvent{Kind: interfaces.EventUpdated, ID: id, Title: title, Description: description, Author: caller}
	default:
		return fmt.Errorf("method %s is read-only", method.Name)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.block++
	s.nonces[from] = tx.Nonce() + 1

	log, err := s.logFor(ev)
	if err != nil {
		return err
	}
	log.TxHash = tx.Hash()
	log.BlockNumber = s.block

	s.receipts[tx.Hash()] = &types.Receipt{
		Type:              tx.Type(),
		Status:            types.ReceiptStatusSuccessful,
		CumulativeGasUsed: simulatedGasLimit,
		GasUsed:           simulatedGasLimit,
		TxHash:            tx.Hash(),
		BlockNumber:       new(big.Int).SetUint64(s.block),
		Logs:              []*types.Log{log},
	}
	return nil
}

func (s *ContractSimulator) TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	receipt, ok := s.receipts[txHash]
	if !ok {
		return nil, ethereum.NotFound
	}
	return receipt, nil
}

// FilterLogs returns contract logs rebuilt from the registry history.
func (s *ContractSimulator) FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error) {
	events, err := s.registry.History(ctx, 0, 0)
	if err != nil {
		return nil, err
	}

	logs := []types.Log{}
	for _, ev := range events {
		log, err := s.logFor(ev)
		if err != nil {
			return nil, err
		}
		if matchesFilter(q, log) {
			logs = append(logs, *log)
		}
	}
	return logs, nil
}

// SubscribeFilterLogs delivers logs for registry mutations committed after the call.
func (s *ContractSimulator) SubscribeFilterLogs(ctx context.Context, q ethereum.FilterQuery, ch chan<- types.Log) (ethereum.Subscription, error) {
	events := make(chan interfaces.RegistryEvent, 16)
	sub := s.registry.Subscribe(events)
	s.logSubscriptions.Inc()

	return event.NewSubscription(func(quit <-chan struct{}) error {
		defer s.logSubscriptions.Dec()
		defer sub.Unsubscribe()
		for {
			select {
			case ev := <-events:
				log, err := s.logFor(ev)
				if err != nil {
					return err
				}
				if !matchesFilter(q, log) {
					continue
				}
				select {
				case ch <- *log:
				case <-quit:
					return nil
				}
			case err := <-sub.Err():
				return err
			case <-quit:
				return nil
			}
		}
	}), nil
}

func (s *ContractSimulator) logFor(ev interfaces.RegistryEvent) (*types.Log, error) {
	idTopic := common.BigToHash(new(big.Int).SetUint64(ev.ID))

	switch ev.Kind {
	case interfaces.EventRegistered:
		abiEvent := s.abi.Events["ImageUploaded"]
		data, err := abiEvent.Inputs.NonIndexed().Pack(ev.ContentHash, ev.Title, big.NewInt(ev.CreatedAt.Unix()))
		if err != nil {
			return nil, err
		}
		return &types.Log{
			Address: s.address,
			Topics:  []common.Hash{abiEvent.ID, idTopic, common.BytesToHash(ev.Author[:])},
			Data:    data,
		}, nil
	case interfaces.EventUpdated:
		abiEvent := s.abi.Events["ImageUpdated"]
		data, err := abiEvent.Inputs.NonIndexed().Pack(ev.Title, ev.Description)
		if err != nil {
			return nil, err
		}
		return &types.Log{
			Address: s.address,
			Topics:  []common.Hash{abiEvent.ID, idTopic},
			Data:    data,
		}, nil
	}
	return nil, fmt.Errorf("unknown event kind %q", ev.Kind)
}

func matchesFilter(q ethereum.FilterQuery, log *types.Log) bool {
	if len(q.Addresses) > 0 {
		found := false
		for _, addr := range q.Addresses {
			if addr == log.Address {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	for i, set := range q.Topics {
		if len(set) == 0 {
			continue
		}
		if i >= len(log.Topics) {
			return false
		}
		found := false
		for _, topic := range set {
			if topic == log.Topics[i] {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func revertFor(err error) error {
	switch {
	case errors.Is(err, interfaces.ErrDuplicateContent):
		return &RevertError{Reason: RevertDuplicate}
	case errors.Is(err, interfaces.ErrUnauthorized):
		return &RevertError{Reason: RevertNotAuthor}
	case errors.Is(err, interfaces.ErrNotFound):
		return &RevertError{Reason: RevertDoesNotExist}
	case errors.Is(err, interfaces.ErrInvalidArgument):
		return &RevertError{Reason: RevertEmptyTitle}
	}
	return err
}

func contractImage(rec interfaces.ImageRecord) imagecopyright.ImageCopyrightImage {
	return imagecopyright.ImageCopyrightImage{
		Id:          new(big.Int).SetUint64(rec.ID),
		IpfsHash:    rec.ContentHash,
		Title:       rec.Title,
		Description: rec.Description,
		Author:      common.Address(rec.Author),
		Timestamp:   big.NewInt(rec.CreatedAt.Unix()),
	}
}

func contractImages(records []interfaces.ImageRecord) []imagecopyright.ImageCopyrightImage {
	images := make([]imagecopyright.ImageCopyrightImage, 0, len(records))
	for _, rec := range records {
		images = append(images, contractImage(rec))
	}
	return images
}
