package feer

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"bridgecore/core/async"
	"bridgecore/core/events"
	"bridgecore/core/merkle"
	"bridgecore/core/operation"
	"bridgecore/core/replay"
	"bridgecore/core/types"
	"bridgecore/crypto"
	"bridgecore/native/bridge"
	"bridgecore/native/external"
	"bridgecore/storage"
)

const (
	bridgeAccount types.AccountID = "bridge.near"
	feeAccount    types.AccountID = "feer.near"
	usdc          types.AccountID = "usdc.near"
	nftToken      types.AccountID = "nft.near"
	alice         types.AccountID = "alice.near"
	testChain                     = "Near"
)

type fixture struct {
	key    *crypto.PrivateKey
	queue  *async.Queue
	rec    *events.Recorder
	bridge *bridge.Contract
	feer   *Contract
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	key, err := crypto.GeneratePrivateKey()
	require.NoError(t, err)
	f := &fixture{key: key, queue: async.NewQueue(nil), rec: &events.Recorder{}}

	f.bridge = bridge.New(bridgeAccount, storage.NewMemDB(), f.queue)
	f.bridge.SetEmitter(f.rec)
	require.NoError(t, f.bridge.Init(key.PubKey().Signer(), feeAccount, testChain))

	f.feer = New(feeAccount, storage.NewMemDB(), f.queue)
	require.NoError(t, f.feer.Init(testChain, bridgeAccount, []types.FeeToken{
		{Kind: types.TokenNative, Fee: uint256.NewInt(10)},
		{Token: usdc, Kind: types.TokenFT, Fee: uint256.NewInt(5)},
	}))

	f.queue.Register(bridgeAccount, f.bridge)
	f.queue.Register(feeAccount, f.feer)
	return f
}

func (f *fixture) register(t *testing.T, owner types.AccountID) {
	t.Helper()
	ok, err := f.feer.Register(types.Invocation{Predecessor: owner}, nil)
	require.NoError(t, err)
	require.True(t, ok)
}

func (f *fixture) manageOp(t *testing.T, key *crypto.PrivateKey, kind operation.FeeKind, token types.FeeToken, amount *uint256.Int, origin types.Hash) FeeManageOperation {
	t.Helper()
	var receiver *types.AccountID
	if kind == operation.FeeWithdraw {
		self := feeAccount
		receiver = &self
	}
	data := operation.FeeManagement{Kind: kind, Token: token, Amount: amount}.Encode()
	leaf := merkle.NewContentNode(origin, bridgeAccount, testChain, data, receiver).Hash()
	tree := merkle.NewTree([]types.Hash{{0x0a}, leaf})
	path, ok := tree.Proof(1)
	require.True(t, ok)
	sig, rid, err := key.Sign(tree.Root())
	require.NoError(t, err)
	return FeeManageOperation{Token: token, Origin: origin, Path: path, Signature: sig, RecoveryID: rid}
}

func encodeLog(t *testing.T, log DepositLog) string {
	t.Helper()
	raw, err := json.Marshal(log)
	require.NoError(t, err)
	return string(raw)
}

func ptr[T any](v T) *T { return &v }

// nativeDeposit describes a native deposit paying its fee in usdc.
func nativeDeposit(transfer TransferType) DepositLog {
	return DepositLog{
		FeeToken:     ptr(usdc),
		Kind:         types.TokenNative,
		TransferType: transfer,
		Receiver:     "0xabc",
		ChainTo:      "Ethereum",
		BundleSalt:   ptr("salt"),
	}
}

func (f *fixture) payUSDCFee(t *testing.T, log DepositLog, amount uint64) *uint256.Int {
	t.Helper()
	log.TransferType = TransferFee
	refund, err := f.feer.FTOnTransfer(types.Invocation{Predecessor: usdc}, external.FTOnTransferArgs{
		SenderID: alice,
		Amount:   uint256.NewInt(amount),
		Msg:      encodeLog(t, log),
	})
	require.NoError(t, err)
	return refund
}

func (f *fixture) depositNative(log DepositLog, amount uint64) error {
	log.TransferType = TransferDeposit
	return f.feer.ChargeNative(types.Invocation{Predecessor: alice, Deposit: uint256.NewInt(amount)}, log)
}

func stripID(calls []async.Call) []async.Call {
	out := make([]async.Call, 0, len(calls))
	for _, call := range calls {
		call.ID = ""
		out = append(out, call)
	}
	return out
}

func TestLegsCommute(t *testing.T) {
	feeFirst := newFixture(t)
	feeFirst.register(t, alice)
	require.True(t, feeFirst.payUSDCFee(t, nativeDeposit(TransferFee), 5).IsZero())
	require.Empty(t, feeFirst.queue.Pending())
	require.NoError(t, feeFirst.depositNative(nativeDeposit(TransferDeposit), 100))

	depositFirst := newFixture(t)
	depositFirst.register(t, alice)
	require.NoError(t, depositFirst.depositNative(nativeDeposit(TransferDeposit), 100))
	require.Empty(t, depositFirst.queue.Pending())
	require.True(t, depositFirst.payUSDCFee(t, nativeDeposit(TransferFee), 5).IsZero())

	a, b := stripID(feeFirst.queue.Pending()), stripID(depositFirst.queue.Pending())
	require.Len(t, a, 1)
	require.Equal(t, a, b)

	forward := a[0]
	require.Equal(t, bridgeAccount, forward.Receiver)
	require.Equal(t, feeAccount, forward.Caller)
	require.Equal(t, external.MethodNativeDeposit, forward.Method)
	require.Equal(t, uint256.NewInt(100), forward.Deposit)
	args, err := external.Decode[external.NativeDepositArgs](forward.Args)
	require.NoError(t, err)
	require.Equal(t, alice, args.Sender)
	require.Equal(t, "0xabc", args.ReceiverID)
	require.Equal(t, "Ethereum", args.Chain)
	require.Equal(t, "salt", *args.BundleSalt)

	for _, f := range []*fixture{feeFirst, depositFirst} {
		op, err := f.feer.DepositOperation(alice)
		require.NoError(t, err)
		require.Equal(t, DepositOperation{Owner: alice}, *op)
	}
}

func TestForwardReachesBridge(t *testing.T) {
	f := newFixture(t)
	f.register(t, alice)
	f.payUSDCFee(t, nativeDeposit(TransferFee), 5)
	require.NoError(t, f.depositNative(nativeDeposit(TransferDeposit), 100))

	n, err := f.queue.Drain(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, n)
	require.Empty(t, f.queue.Pending())

	got := f.rec.Events()
	require.Len(t, got, 1)
	deposited, ok := got[0].(events.NativeDeposited)
	require.True(t, ok)
	require.Equal(t, alice, deposited.Sender)
	require.Equal(t, "100", deposited.Amount)
	require.Equal(t, "Ethereum", deposited.ChainTo)
}

func TestFTDepositForwardedThroughToken(t *testing.T) {
	f := newFixture(t)
	// The token contract notifies the bridge the way ft_transfer_call does.
	f.queue.Register(usdc, async.HandlerFunc(func(ctx context.Context, call async.Call) async.Result {
		args, err := external.Decode[external.FTTransferCallArgs](call.Args)
		if err != nil {
			return async.Failure(err)
		}
		return f.bridge.HandleCall(ctx, async.Call{
			Caller:   usdc,
			Receiver: args.ReceiverID,
			Method:   external.MethodFTOnTransfer,
			Args:     external.FTOnTransferArgs{SenderID: call.Caller, Amount: args.Amount, Msg: args.Msg},
		})
	}))
	f.register(t, alice)

	log := DepositLog{
		Token:    ptr(usdc),
		Kind:     types.TokenFT,
		Receiver: "0xabc",
		ChainTo:  "Ethereum",
	}
	log.TransferType = TransferDeposit
	refund, err := f.feer.FTOnTransfer(types.Invocation{Predecessor: usdc}, external.FTOnTransferArgs{
		SenderID: alice,
		Amount:   uint256.NewInt(1000),
		Msg:      encodeLog(t, log),
	})
	require.NoError(t, err)
	require.True(t, refund.IsZero())
	log.TransferType = TransferFee
	require.NoError(t, f.feer.ChargeNative(types.Invocation{Predecessor: alice, Deposit: uint256.NewInt(10)}, log))

	forward := stripID(f.queue.Pending())
	require.Len(t, forward, 1)
	require.Equal(t, external.MethodFTTransferCall, forward[0].Method)
	require.Equal(t, external.OneYocto(), forward[0].Deposit)

	_, err = f.queue.Drain(context.Background())
	require.NoError(t, err)
	got := f.rec.Events()
	require.Len(t, got, 1)
	deposited, ok := got[0].(events.FTDeposited)
	require.True(t, ok)
	require.Equal(t, usdc, deposited.Token)
	require.Equal(t, alice, deposited.Sender)
	require.Equal(t, "1000", deposited.Amount)
}

func TestNFTDepositForwardsToken(t *testing.T) {
	f := newFixture(t)
	f.register(t, alice)
	log := DepositLog{
		Token:        ptr(nftToken),
		Kind:         types.TokenNFT,
		TransferType: TransferDeposit,
		Receiver:     "0xabc",
		ChainTo:      "Ethereum",
		IsWrapped:    true,
	}
	returned, err := f.feer.NFTOnTransfer(types.Invocation{Predecessor: nftToken}, external.NFTOnTransferArgs{
		SenderID:        alice,
		PreviousOwnerID: alice,
		TokenID:         "7",
		Msg:             encodeLog(t, log),
	})
	require.NoError(t, err)
	require.False(t, returned)

	log.TransferType = TransferFee
	require.NoError(t, f.feer.ChargeNative(types.Invocation{Predecessor: alice, Deposit: uint256.NewInt(10)}, log))

	pending := f.queue.Pending()
	require.Len(t, pending, 1)
	require.Equal(t, nftToken, pending[0].Receiver)
	require.Equal(t, external.MethodNFTTransferCall, pending[0].Method)
	args, err := external.Decode[external.NFTTransferCallArgs](pending[0].Args)
	require.NoError(t, err)
	require.Equal(t, bridgeAccount, args.ReceiverID)
	require.Equal(t, "7", args.TokenID)
	want, err := log.transferLog(alice).Encode()
	require.NoError(t, err)
	require.Equal(t, want, args.Msg)
}

func TestDuplicateLegIsRefunded(t *testing.T) {
	f := newFixture(t)
	f.register(t, alice)
	require.True(t, f.payUSDCFee(t, nativeDeposit(TransferFee), 5).IsZero())
	require.Equal(t, uint256.NewInt(5), f.payUSDCFee(t, nativeDeposit(TransferFee), 5))

	op, err := f.feer.DepositOperation(alice)
	require.NoError(t, err)
	require.True(t, op.FeeCharged)
	require.False(t, op.Deposited)
	require.Empty(t, f.queue.Pending())
}

func TestConflictingLegLeavesRecordUntouched(t *testing.T) {
	f := newFixture(t)
	f.register(t, alice)
	f.payUSDCFee(t, nativeDeposit(TransferFee), 5)
	before, err := f.feer.DepositOperation(alice)
	require.NoError(t, err)

	other := nativeDeposit(TransferDeposit)
	other.Receiver = "0xdef"
	err = f.depositNative(other, 100)
	require.ErrorIs(t, err, ErrChargeNative)
	require.ErrorIs(t, err, ErrOperationMismatch)

	after, err := f.feer.DepositOperation(alice)
	require.NoError(t, err)
	require.Equal(t, before, after)
	require.Empty(t, f.queue.Pending())
}

func TestFeeAmountMustMatchRegistry(t *testing.T) {
	f := newFixture(t)
	f.register(t, alice)
	require.Equal(t, uint256.NewInt(4), f.payUSDCFee(t, nativeDeposit(TransferFee), 4))

	log := nativeDeposit(TransferFee)
	log.FeeToken = nil
	err := f.feer.ChargeNative(types.Invocation{Predecessor: alice, Deposit: uint256.NewInt(9)}, log)
	require.ErrorIs(t, err, ErrFeeAmountMismatch)
}

func TestRejectionSeverity(t *testing.T) {
	f := newFixture(t)

	err := f.depositNative(nativeDeposit(TransferDeposit), 100)
	require.ErrorIs(t, err, ErrChargeNative)
	require.ErrorIs(t, err, ErrAccountNotFound)

	require.Equal(t, uint256.NewInt(5), f.payUSDCFee(t, nativeDeposit(TransferFee), 5))

	refund, err := f.feer.FTOnTransfer(types.Invocation{Predecessor: usdc}, external.FTOnTransferArgs{
		SenderID: alice,
		Amount:   uint256.NewInt(3),
		Msg:      "not json",
	})
	require.NoError(t, err)
	require.Equal(t, uint256.NewInt(3), refund)

	returned, err := f.feer.NFTOnTransfer(types.Invocation{Predecessor: nftToken}, external.NFTOnTransferArgs{
		SenderID: alice,
		TokenID:  "1",
		Msg:      encodeLog(t, nativeDeposit(TransferDeposit)),
	})
	require.NoError(t, err)
	require.True(t, returned)

	// A native leg whose log names a token is malformed, not merely refused.
	bad := nativeDeposit(TransferDeposit)
	bad.Token = ptr(usdc)
	require.ErrorIs(t, f.depositNative(bad, 100), ErrInvalidDepositLog)
}

func TestUnknownFeeTokenIsRefunded(t *testing.T) {
	f := newFixture(t)
	f.register(t, alice)
	const dai types.AccountID = "dai.near"
	log := nativeDeposit(TransferFee)
	log.FeeToken = ptr(dai)
	refund, err := f.feer.FTOnTransfer(types.Invocation{Predecessor: dai}, external.FTOnTransferArgs{
		SenderID: alice,
		Amount:   uint256.NewInt(5),
		Msg:      encodeLog(t, log),
	})
	require.NoError(t, err)
	require.Equal(t, uint256.NewInt(5), refund)
}

func TestRegisterAndUnregister(t *testing.T) {
	f := newFixture(t)
	f.register(t, alice)

	again, err := f.feer.Register(types.Invocation{Predecessor: "bob.near"}, ptr(alice))
	require.NoError(t, err)
	require.False(t, again)

	_, err = f.feer.Unregister(types.Invocation{Predecessor: alice}, false)
	require.ErrorIs(t, err, ErrOneYocto)

	f.payUSDCFee(t, nativeDeposit(TransferFee), 5)
	yocto := types.Invocation{Predecessor: alice, Deposit: external.OneYocto()}
	_, err = f.feer.Unregister(yocto, false)
	require.ErrorIs(t, err, ErrUnregisterPending)

	removed, err := f.feer.Unregister(yocto, true)
	require.NoError(t, err)
	require.True(t, removed)
	registered, err := f.feer.IsRegistered(alice)
	require.NoError(t, err)
	require.False(t, registered)

	removed, err = f.feer.Unregister(yocto, false)
	require.NoError(t, err)
	require.False(t, removed)
}

func TestInitRejectsBadRegistry(t *testing.T) {
	c := New(feeAccount, storage.NewMemDB(), async.NewQueue(nil))
	require.ErrorIs(t, c.Load(), ErrNotInitialized)
	dup := []types.FeeToken{
		{Token: usdc, Kind: types.TokenFT, Fee: uint256.NewInt(1)},
		{Token: usdc, Kind: types.TokenFT, Fee: uint256.NewInt(2)},
	}
	require.ErrorIs(t, c.Init(testChain, bridgeAccount, dup), ErrTokenExists)
	require.Error(t, c.Init(testChain, bridgeAccount, []types.FeeToken{{Token: usdc, Kind: types.TokenNative}}))
	require.NoError(t, c.Init(testChain, bridgeAccount, nil))
	require.ErrorIs(t, c.Init(testChain, bridgeAccount, nil), ErrAlreadyInitialized)
}

func TestRegistryManagedWithBridgeSigner(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	wnear := types.FeeToken{Token: "wnear.near", Kind: types.TokenFT, Fee: uint256.NewInt(7)}

	add := f.manageOp(t, f.key, operation.FeeAdd, wnear, nil, types.Hash{0x01})
	require.NoError(t, f.feer.AddFeeToken(add))
	pending := f.queue.Pending()
	require.Len(t, pending, 1)
	require.Equal(t, external.MethodGetSigner, pending[0].Method)
	_, err := f.queue.Drain(ctx)
	require.NoError(t, err)

	got, err := f.feer.FeeToken("wnear.near")
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, uint256.NewInt(7), got.Fee)

	// Replaying the same signed operation is refused.
	require.NoError(t, f.feer.AddFeeToken(add))
	_, err = f.queue.Drain(ctx)
	require.ErrorIs(t, err, replay.ErrHashConsumed)

	updated := wnear
	updated.Fee = uint256.NewInt(9)
	require.NoError(t, f.feer.UpdateFeeToken(f.manageOp(t, f.key, operation.FeeUpdate, updated, nil, types.Hash{0x02})))
	_, err = f.queue.Drain(ctx)
	require.NoError(t, err)
	got, err = f.feer.FeeToken("wnear.near")
	require.NoError(t, err)
	require.Equal(t, uint256.NewInt(9), got.Fee)

	require.NoError(t, f.feer.RemoveFeeToken(f.manageOp(t, f.key, operation.FeeRemove, updated, nil, types.Hash{0x03})))
	_, err = f.queue.Drain(ctx)
	require.NoError(t, err)
	got, err = f.feer.FeeToken("wnear.near")
	require.NoError(t, err)
	require.Nil(t, got)

	consumed, err := f.feer.IsConsumed(types.Hash{0x03})
	require.NoError(t, err)
	require.True(t, consumed)
}

func TestRegistryRejectsForeignSigner(t *testing.T) {
	f := newFixture(t)
	other, err := crypto.GeneratePrivateKey()
	require.NoError(t, err)
	wnear := types.FeeToken{Token: "wnear.near", Kind: types.TokenFT, Fee: uint256.NewInt(7)}

	require.NoError(t, f.feer.AddFeeToken(f.manageOp(t, other, operation.FeeAdd, wnear, nil, types.Hash{0x01})))
	_, err = f.queue.Drain(context.Background())
	require.ErrorIs(t, err, crypto.ErrSignerMismatch)

	got, err := f.feer.FeeToken("wnear.near")
	require.NoError(t, err)
	require.Nil(t, got)
	consumed, err := f.feer.IsConsumed(types.Hash{0x01})
	require.NoError(t, err)
	require.False(t, consumed)
}

func TestSignerUnavailable(t *testing.T) {
	queue := async.NewQueue(nil)
	c := New(feeAccount, storage.NewMemDB(), queue)
	require.NoError(t, c.Init(testChain, bridgeAccount, nil))
	require.NoError(t, c.AddFeeToken(FeeManageOperation{Token: types.FeeToken{Token: usdc, Kind: types.TokenFT}}))

	pending := queue.Pending()
	require.Len(t, pending, 1)
	err := queue.Resolve(pending[0].ID, async.Failure(async.ErrNoHandler))
	require.ErrorIs(t, err, ErrSignerUnavailable)
}

func TestWithdrawCollectedFees(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	native := types.FeeToken{Kind: types.TokenNative, Fee: uint256.NewInt(10)}
	amount := uint256.NewInt(250)

	op := f.manageOp(t, f.key, operation.FeeWithdraw, native, amount, types.Hash{0x04})
	require.NoError(t, f.feer.Withdraw(op, amount, "treasury.near"))
	_, err := f.queue.Drain(ctx)
	require.NoError(t, err)

	pending := f.queue.Pending()
	require.Len(t, pending, 1)
	require.Equal(t, types.AccountID("treasury.near"), pending[0].Receiver)
	require.Equal(t, external.MethodNativeTransfer, pending[0].Method)
	require.Equal(t, amount, pending[0].Deposit)

	nft := types.FeeToken{Token: nftToken, Kind: types.TokenNFT}
	op = f.manageOp(t, f.key, operation.FeeWithdraw, nft, amount, types.Hash{0x05})
	require.ErrorIs(t, f.feer.Withdraw(op, amount, "treasury.near"), ErrUnsupportedToken)
	require.Len(t, f.queue.Pending(), 1)
	consumed, err := f.feer.IsConsumed(types.Hash{0x05})
	require.NoError(t, err)
	require.False(t, consumed)
}

func TestWithdrawWithMismatchedKindKeepsOriginUsable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	native := types.FeeToken{Kind: types.TokenNative, Fee: uint256.NewInt(10)}
	amount := uint256.NewInt(250)
	origin := types.Hash{0x06}
	genuine := f.manageOp(t, f.key, operation.FeeWithdraw, native, amount, origin)

	// Same signature, token kind switched to FT with no token address.
	forged := genuine
	forged.Token = types.FeeToken{Kind: types.TokenFT, Fee: native.Fee}
	require.Error(t, f.feer.Withdraw(forged, amount, "treasury.near"))
	require.Empty(t, f.queue.Pending())

	// The callback applies the same check before consuming the origin.
	signer := f.key.PubKey().Signer()
	require.Error(t, f.feer.applyManagement(operation.FeeWithdraw, forged, amount, "treasury.near", async.Success(signer)))
	require.Empty(t, f.queue.Pending())
	consumed, err := f.feer.IsConsumed(origin)
	require.NoError(t, err)
	require.False(t, consumed)

	require.NoError(t, f.feer.Withdraw(genuine, amount, "treasury.near"))
	_, err = f.queue.Drain(ctx)
	require.NoError(t, err)
	pending := f.queue.Pending()
	require.Len(t, pending, 1)
	require.Equal(t, external.MethodNativeTransfer, pending[0].Method)
	consumed, err = f.feer.IsConsumed(origin)
	require.NoError(t, err)
	require.True(t, consumed)
}

func TestUpdateCannotBreakKindAddressPairing(t *testing.T) {
	f := newFixture(t)
	broken := types.FeeToken{Kind: types.TokenFT, Fee: uint256.NewInt(3)}
	op := f.manageOp(t, f.key, operation.FeeUpdate, broken, nil, types.Hash{0x07})

	require.Error(t, f.feer.UpdateFeeToken(op))
	require.Error(t, f.feer.applyManagement(operation.FeeUpdate, op, nil, "", async.Success(f.key.PubKey().Signer())))

	got, err := f.feer.FeeToken("")
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, types.TokenNative, got.Kind)
	require.Equal(t, uint256.NewInt(10), got.Fee)
	consumed, err := f.feer.IsConsumed(types.Hash{0x07})
	require.NoError(t, err)
	require.False(t, consumed)
}

func TestNativeForwardSenderIsDepositOwner(t *testing.T) {
	f := newFixture(t)
	f.register(t, alice)
	f.payUSDCFee(t, nativeDeposit(TransferFee), 5)
	require.NoError(t, f.depositNative(nativeDeposit(TransferDeposit), 100))

	pending := f.queue.Pending()
	require.Len(t, pending, 1)
	require.Equal(t, feeAccount, pending[0].Caller)
	args, err := external.Decode[external.NativeDepositArgs](pending[0].Args)
	require.NoError(t, err)
	require.Equal(t, alice, args.Sender)
	require.NotEqual(t, pending[0].Caller, args.Sender)
}

// flakyDB fails batch writes while broken is set.
type flakyDB struct {
	storage.Database
	broken bool
}

func (d *flakyDB) Write(batch *storage.Batch) error {
	if d.broken {
		return errors.New("disk full")
	}
	return d.Database.Write(batch)
}

func TestRegisterReportsNothingWhenCommitFails(t *testing.T) {
	db := &flakyDB{Database: storage.NewMemDB()}
	c := New(feeAccount, db, async.NewQueue(nil))
	require.NoError(t, c.Init(testChain, bridgeAccount, nil))

	db.broken = true
	created, err := c.Register(types.Invocation{Predecessor: alice}, nil)
	require.Error(t, err)
	require.False(t, created)

	db.broken = false
	created, err = c.Register(types.Invocation{Predecessor: alice}, nil)
	require.NoError(t, err)
	require.True(t, created)

	db.broken = true
	removed, err := c.Unregister(types.Invocation{Predecessor: alice, Deposit: external.OneYocto()}, false)
	require.Error(t, err)
	require.False(t, removed)
	registered, err := c.IsRegistered(alice)
	require.NoError(t, err)
	require.True(t, registered)
}

func TestInvokeFromJSON(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.feer.Invoke(ctx, types.Invocation{Predecessor: alice}, "storage_deposit", nil)
	require.NoError(t, err)

	params, err := json.Marshal(ChargeNativeRequest{Deposit: nativeDeposit(TransferDeposit)})
	require.NoError(t, err)
	_, err = f.feer.Invoke(ctx, types.Invocation{Predecessor: alice, Deposit: uint256.NewInt(100)}, "charge_native", params)
	require.NoError(t, err)

	out, err := f.feer.Invoke(ctx, types.Invocation{}, "get_deposit_op", json.RawMessage(`{"owner":"alice.near"}`))
	require.NoError(t, err)
	op, ok := out.(*DepositOperation)
	require.True(t, ok)
	require.True(t, op.Deposited)
	require.Equal(t, uint256.NewInt(100), op.Amount)

	out, err = f.feer.Invoke(ctx, types.Invocation{}, "get_fee_token", nil)
	require.NoError(t, err)
	token, ok := out.(*types.FeeToken)
	require.True(t, ok)
	require.True(t, token.IsNative())

	_, err = f.feer.Invoke(ctx, types.Invocation{}, "nope", nil)
	require.ErrorIs(t, err, async.ErrUnknownMethod)
}
