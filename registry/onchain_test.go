package registry

import (
	"context"
	"math/big"
	"testing"
	"time"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ruteri/image-copyright-registry/interfaces"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testChainID = big.NewInt(1337)

// setupSimulatedContract returns a registry served through the contract ABI
// and two funded transactors.
func setupSimulatedContract(t *testing.T) (*Registry, *ContractSimulator, *bind.TransactOpts, *bind.TransactOpts) {
	t.Helper()

	r := newTestRegistry(t)
	sim, err := NewContractSimulator(r, common.HexToAddress("0x5FbDB2315678afecb367f032d93F642f64180aa3"), testChainID)
	require.NoError(t, err)

	newAuth := func() *bind.TransactOpts {
		key, err := crypto.GenerateKey()
		require.NoError(t, err)
		auth, err := bind.NewKeyedTransactorWithChainID(key, testChainID)
		require.NoError(t, err)
		return auth
	}
	return r, sim, newAuth(), newAuth()
}

func newOnchainClient(t *testing.T, sim *ContractSimulator, auth *bind.TransactOpts) *OnchainRegistryClient {
	t.Helper()
	client, err := NewOnchainRegistryClient(sim, sim, sim.Address())
	require.NoError(t, err)
	if auth != nil {
		client.SetTransactOpts(auth)
	}
	return client
}

func TestOnchainClient_RegisterAndRead(t *testing.T) {
	ctx := context.Background()
	_, sim, authA, authB := setupSimulatedContract(t)
	clientA := newOnchainClient(t, sim, authA)
	clientB := newOnchainClient(t, sim, authB)

	id, err := clientA.Register(ctx, "Qm111", "Beach", "sunset")
	require.NoError(t, err)
	assert.Equal(t, uint64(1), id)

	_, err = clientB.Register(ctx, "Qm111", "Other", "x")
	assert.ErrorIs(t, err, interfaces.ErrDuplicateContent)

	exists, err := clientB.Exists(ctx, "Qm111")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = clientB.Exists(ctx, "QmNotExist")
	require.NoError(t, err)
	assert.False(t, exists)

	rec, err := clientB.GetByHash(ctx, "Qm111")
	require.NoError(t, err)
	assert.Equal(t, interfaces.Identity(authA.From), rec.Author)
	assert.Equal(t, "Beach", rec.Title)
	assert.Equal(t, "sunset", rec.Description)
	assert.Equal(t, time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC), rec.CreatedAt)

	byID, err := clientB.GetByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, rec, byID)

	_, err = clientB.GetByID(ctx, 7)
	assert.ErrorIs(t, err, interfaces.ErrNotFound)

	_, err = clientA.Register(ctx, "", "t", "")
	assert.ErrorIs(t, err, interfaces.ErrInvalidArgument)
	_, err = clientA.Register(ctx, "Qm222", "", "")
	assert.ErrorIs(t, err, interfaces.ErrInvalidArgument)
}

func TestOnchainClient_UpdateAndStats(t *testing.T) {
	ctx := context.Background()
	_, sim, authA, authB := setupSimulatedContract(t)
	clientA := newOnchainClient(t, sim, authA)
	clientB := newOnchainClient(t, sim, authB)

	for _, hash := range []string{"Qm1", "Qm2"} {
		_, err := clientA.Register(ctx, hash, "by A", "")
		require.NoError(t, err)
	}
	_, err := clientB.Register(ctx, "Qm3", "by B", "")
	require.NoError(t, err)

	stats, err := clientA.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, interfaces.RegistryStats{TotalCount: 3, CallerCount: 2}, stats)

	count, err := clientA.ImageCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), count)

	err = clientB.Update(ctx, 1, "New", "Desc")
	assert.ErrorIs(t, err, interfaces.ErrUnauthorized)

	err = clientA.Update(ctx, 9, "New", "Desc")
	assert.ErrorIs(t, err, interfaces.ErrNotFound)

	require.NoError(t, clientA.Update(ctx, 1, "New", "Desc"))
	rec, err := clientB.GetByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "New", rec.Title)

	all, err := clientB.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []uint64{1, 2, 3}, []uint64{all[0].ID, all[1].ID, all[2].ID})

	mine, err := clientB.ListByAuthor(ctx, interfaces.Identity(authA.From))
	require.NoError(t, err)
	assert.Len(t, mine, 2)
}

func TestOnchainClient_ReadOnly(t *testing.T) {
	ctx := context.Background()
	r, sim, _, _ := setupSimulatedContract(t)
	client := newOnchainClient(t, sim, nil)

	_, err := client.Register(ctx, "Qm1", "t", "")
	assert.ErrorIs(t, err, ErrNoTransactOpts)
	assert.ErrorIs(t, client.Update(ctx, 1, "t", ""), ErrNoTransactOpts)

	_, err = r.Register(ctx, "Qm1", "direct", "", authorA)
	require.NoError(t, err)

	all, err := client.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, authorA, all[0].Author)
}

func TestOnchainClient_Watch(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	_, sim, authA, _ := setupSimulatedContract(t)
	client := newOnchainClient(t, sim, authA)

	sink := make(chan interfaces.RegistryEvent, 4)
	done := make(chan error, 1)
	go func() { done <- client.Watch(ctx, sink) }()

	require.Eventually(t, func() bool {
		return sim.LogSubscriptions() == 2
	}, 2*time.Second, 10*time.Millisecond)

	_, err := client.Register(ctx, "Qm1", "watched", "")
	require.NoError(t, err)
	require.NoError(t, client.Update(ctx, 1, "renamed", "desc"))

	// the two event kinds travel through separate subscriptions
	received := make(map[interfaces.EventKind]interfaces.RegistryEvent)
	for len(received) < 2 {
		select {
		case ev := <-sink:
			received[ev.Kind] = ev
		case <-time.After(2 * time.Second):
			t.Fatalf("received only %d events", len(received))
		}
	}

	registered := received[interfaces.EventRegistered]
	assert.Equal(t, "Qm1", registered.ContentHash)
	assert.Equal(t, interfaces.Identity(authA.From), registered.Author)
	assert.Equal(t, "renamed", received[interfaces.EventUpdated].Title)

	cancel()
	assert.NoError(t, <-done)
}

func TestSimulator_FilterLogs(t *testing.T) {
	ctx := context.Background()
	r, sim, _, _ := setupSimulatedContract(t)

	_, err := r.Register(ctx, "Qm1", "one", "", authorA)
	require.NoError(t, err)
	require.NoError(t, r.Update(ctx, 1, "uno", "", authorA))

	logs, err := sim.FilterLogs(ctx, ethereumQuery(sim, "ImageUploaded"))
	require.NoError(t, err)
	require.Len(t, logs, 1)

	client := newOnchainClient(t, sim, nil)
	uploaded, err := client.contract.ParseImageUploaded(logs[0])
	require.NoError(t, err)
	assert.Equal(t, "Qm1", uploaded.IpfsHash)
	assert.Equal(t, common.Address(authorA), uploaded.Author)
}

func TestMapContractError(t *testing.T) {
	tests := []struct {
		reason string
		err    error
	}{
		{RevertEmptyHash, interfaces.ErrInvalidArgument},
		{RevertEmptyTitle, interfaces.ErrInvalidArgument},
		{RevertDuplicate, interfaces.ErrDuplicateContent},
		{RevertNotAuthor, interfaces.ErrUnauthorized},
		{RevertDoesNotExist, interfaces.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.reason, func(t *testing.T) {
			assert.ErrorIs(t, mapContractError(&RevertError{Reason: tt.reason}), tt.err)
		})
	}
}

func ethereumQuery(sim *ContractSimulator, eventName string) ethereum.FilterQuery {
	return ethereum.FilterQuery{
		Addresses: []common.Address{sim.Address()},
		Topics:    [][]common.Hash{{sim.abi.Events[eventName].ID}},
	}
}
