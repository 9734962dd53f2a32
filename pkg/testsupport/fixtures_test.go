package testsupport

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/goliatone/go-wallet-query/wallet"
)

func TestLoadFixtureJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "network.json")
	if err := os.WriteFile(path, []byte(`{"chainId":"0x1","symbol":"ETH","coin":60}`), 0o644); err != nil {
		t.Fatalf("failed to create fixture: %v", err)
	}

	var network wallet.NetworkInfo
	LoadFixtureJSON(t, path, &network)

	if network.ChainID != "0x1" || network.Coin != wallet.CoinETH {
		t.Errorf("unexpected network %+v", network)
	}
}

func TestFixturePath(t *testing.T) {
	if got, want := FixturePath("wallet.json"), filepath.Join("testdata", "wallet.json"); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestWriteConfigFile(t *testing.T) {
	path := WriteConfigFile(t, "cache:\n  ttl: 1m\n")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read config file: %v", err)
	}
	if string(data) != "cache:\n  ttl: 1m\n" {
		t.Errorf("unexpected content %q", data)
	}
}

func TestWalletStateFixture(t *testing.T) {
	state := WalletStateFixture(t)

	if len(state.Info.AccountInfos) != 5 {
		t.Fatalf("expected 5 accounts, got %d", len(state.Info.AccountInfos))
	}
	if state.Info.AccountInfos[2].Hardware == nil {
		t.Error("expected the third account to be a hardware account")
	}
	if got := state.ChainIDs[wallet.CoinFIL]; got != wallet.FilecoinMainnetChainID {
		t.Errorf("expected FIL chain id %q, got %q", wallet.FilecoinMainnetChainID, got)
	}
	if got := len(state.Networks[wallet.CoinETH]); got != 3 {
		t.Errorf("expected 3 ETH networks, got %d", got)
	}
	if got := state.SolanaBalances[Key("So1anaAccount1111111111111111111111111111111", wallet.SolanaMainnetChainID)].Balance; got != 2500000000 {
		t.Errorf("unexpected solana balance %d", got)
	}
}

func TestFakeBoundaryRecordsCallsAndFailures(t *testing.T) {
	ctx := context.Background()
	fake := NewFakeBoundary(WalletStateFixture(t))

	coin, err := fake.GetSelectedCoin(ctx)
	if err != nil || coin != wallet.CoinETH {
		t.Fatalf("expected ETH, got %v (%v)", coin, err)
	}

	boom := errors.New("boom")
	fake.Fail("GetSelectedCoin", boom)
	if _, err := fake.GetSelectedCoin(ctx); !errors.Is(err, boom) {
		t.Fatalf("expected injected failure, got %v", err)
	}
	fake.Fail("GetSelectedCoin", nil)
	if _, err := fake.GetSelectedCoin(ctx); err != nil {
		t.Fatalf("expected failure to be cleared, got %v", err)
	}

	if got := fake.Calls("GetSelectedCoin"); got != 3 {
		t.Errorf("expected 3 calls, got %d", got)
	}
	if got := fake.Calls("GetWalletInfo"); got != 0 {
		t.Errorf("expected no GetWalletInfo calls, got %d", got)
	}
}

func TestFakeBoundaryUserAssets(t *testing.T) {
	ctx := context.Background()
	fake := NewFakeBoundary(WalletStateFixture(t))

	dai := wallet.BlockchainToken{
		ContractAddress: "0x6B175474E89094C44Da98b954EedeAC495271d0F",
		Symbol:          "DAI",
		ChainID:         wallet.MainnetChainID,
		Coin:            wallet.CoinETH,
	}

	ok, err := fake.AddUserAsset(ctx, dai)
	if err != nil || !ok {
		t.Fatalf("expected add to succeed, got %v (%v)", ok, err)
	}
	if ok, _ := fake.AddUserAsset(ctx, dai); ok {
		t.Error("expected duplicate add to be refused")
	}

	ok, err = fake.SetUserAssetVisible(ctx, dai, false)
	if err != nil || !ok {
		t.Fatalf("expected visibility change to succeed, got %v (%v)", ok, err)
	}

	ok, err = fake.RemoveUserAsset(ctx, dai)
	if err != nil || !ok {
		t.Fatalf("expected remove to succeed, got %v (%v)", ok, err)
	}
	if ok, _ := fake.RemoveUserAsset(ctx, dai); ok {
		t.Error("expected second remove to report nothing removed")
	}
}

func TestFakeBoundaryBalancesDefaultToZero(t *testing.T) {
	fake := NewFakeBoundary(WalletStateFixture(t))

	res, err := fake.GetBalance(context.Background(), "0xunknown", wallet.CoinETH, wallet.MainnetChainID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Balance != "0" || res.Error != wallet.ProviderSuccess {
		t.Errorf("expected zero balance, got %+v", res)
	}
}
