package nft

import (
	"context"
	"errors"
	"testing"
)

func TestFakeClientMintAndRange(t *testing.T) {
	ctx := context.Background()
	fc := NewFakeClient()

	first, err := fc.MintToken(ctx, "Qm123", [][]byte{{0x01}})
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	if first.TokenID != 0 || first.CIDHash != "Qm123" {
		t.Fatalf("unexpected token: %+v", first)
	}

	second, err := fc.MintToken(ctx, "Qm456", nil)
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	if second.TokenID != 1 {
		t.Fatalf("expected sequential token id, got %d", second.TokenID)
	}

	tokens, err := fc.GetTokensInRange(ctx, 0, 10)
	if err != nil {
		t.Fatalf("range: %v", err)
	}
	if len(tokens) != 2 || tokens[0].CIDHash != "Qm123" || tokens[1].CIDHash != "Qm456" {
		t.Fatalf("unexpected range result: %+v", tokens)
	}

	supply, _ := fc.GetSupply(ctx)
	if supply != 2 {
		t.Fatalf("expected supply 2, got %d", supply)
	}
}

func TestFakeClientShareAndRevoke(t *testing.T) {
	ctx := context.Background()
	fc := NewFakeClient()
	addr := "0x00000000000000000000000000000000000000aa"

	td, _ := fc.MintToken(ctx, "QmShared", nil)

	if err := fc.ShareToken(ctx, nil, td.TokenID); err == nil {
		t.Fatalf("expected validation error for empty recipient list")
	}

	if err := fc.ShareToken(ctx, []string{addr}, td.TokenID); err != nil {
		t.Fatalf("share: %v", err)
	}

	addrs, _ := fc.GetSharedWithAddresses(ctx, td.TokenID)
	if len(addrs) != 1 {
		t.Fatalf("expected one shared address, got %v", addrs)
	}

	shared, _ := fc.GetSharedTokensInRange(ctx, 0, 5)
	if len(shared) != 1 || shared[0].TokenID != td.TokenID {
		t.Fatalf("expected shared token in range, got %v", shared)
	}

	if err := fc.RevokeTokenAccess(ctx, td.TokenID, addr); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	addrs, _ = fc.GetSharedWithAddresses(ctx, td.TokenID)
	if len(addrs) != 0 {
		t.Fatalf("expected no shared addresses after revoke, got %v", addrs)
	}
}

func TestFakeClientBurnUnknownToken(t *testing.T) {
	ctx := context.Background()
	fc := NewFakeClient()

	var rErr *RevertError
	if err := fc.BurnToken(ctx, 42, 10); !errors.As(err, &rErr) {
		t.Fatalf("expected RevertError for unknown token, got %v", err)
	}
}

func TestFakeClientAccountStable(t *testing.T) {
	fc := NewFakeClient()
	if fc.Account() == "" || fc.Account() != fc.Account() {
		t.Fatalf("expected stable non-empty account")
	}
}
