package state

import (
	"errors"
	"math/big"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"

	"idxnet/core/types"
)

// ModuleVault derives the deterministic vault address for a module. No key
// controls these addresses; only the module's treasury moves their funds.
func ModuleVault(module string) [20]byte {
	hash := ethcrypto.Keccak256([]byte("idxnet/vault/"), []byte(module))
	var addr [20]byte
	copy(addr[:], hash[12:])
	return addr
}

var (
	// ErrInsufficientBalance rejects transfers and burns exceeding the
	// source account's balance.
	ErrInsufficientBalance = errors.New("treasury: insufficient balance")
	// ErrAmountRange rejects amounts that are negative or exceed 256 bits.
	ErrAmountRange = errors.New("treasury: amount out of range")
	// ErrZeroAddress rejects the zero address as a transfer endpoint.
	ErrZeroAddress = errors.New("treasury: zero address")
)

// Treasury moves fungible tokens between accounts in the store on behalf of
// one module vault. Transfer and Burn act on the vault; TransferFrom pulls
// from an arbitrary account, which the engines use for deposits. Balances are
// bounded to 256 bits like the token contract the ledger mirrors.
type Treasury struct {
	store *Store
	vault [20]byte
}

// NewTreasury binds a treasury to the module vault it pays out of.
func NewTreasury(store *Store, vault [20]byte) *Treasury {
	return &Treasury{store: store, vault: vault}
}

// Vault returns the bound vault address.
func (t *Treasury) Vault() [20]byte { return t.vault }

func checkAmount(amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return ErrAmountRange
	}
	if _, overflow := uint256.FromBig(amount); overflow {
		return ErrAmountRange
	}
	return nil
}

func (t *Treasury) account(addr [20]byte) (*types.Account, error) {
	var stored types.Account
	ok, err := t.store.get(accountKey(addr), &stored)
	if err != nil {
		return nil, err
	}
	if !ok {
		return &types.Account{Balance: big.NewInt(0)}, nil
	}
	if stored.Balance == nil {
		stored.Balance = big.NewInt(0)
	}
	return &stored, nil
}

func (t *Treasury) putAccount(addr [20]byte, account *types.Account) error {
	if _, overflow := uint256.FromBig(account.Balance); overflow {
		return ErrAmountRange
	}
	return t.store.put(accountKey(addr), account)
}

func (t *Treasury) move(from, to [20]byte, amount *big.Int) error {
	if err := checkAmount(amount); err != nil {
		return err
	}
	if amount.Sign() == 0 {
		return nil
	}
	if from == to {
		return nil
	}
	source, err := t.account(from)
	if err != nil {
		return err
	}
	if source.Balance.Cmp(amount) < 0 {
		return ErrInsufficientBalance
	}
	dest, err := t.account(to)
	if err != nil {
		return err
	}
	source.Balance = new(big.Int).Sub(source.Balance, amount)
	dest.Balance = new(big.Int).Add(dest.Balance, amount)
	if err := t.putAccount(from, source); err != nil {
		return err
	}
	return t.putAccount(to, dest)
}

// Transfer pays amount out of the vault.
func (t *Treasury) Transfer(to [20]byte, amount *big.Int) error {
	if to == ([20]byte{}) {
		return ErrZeroAddress
	}
	return t.move(t.vault, to, amount)
}

// TransferFrom moves amount between arbitrary accounts. The engines call it
// with the vault as destination when pulling deposits in.
func (t *Treasury) TransferFrom(from, to [20]byte, amount *big.Int) error {
	if from == ([20]byte{}) || to == ([20]byte{}) {
		return ErrZeroAddress
	}
	return t.move(from, to, amount)
}

// Burn destroys vault tokens.
func (t *Treasury) Burn(amount *big.Int) error {
	if err := checkAmount(amount); err != nil {
		return err
	}
	if amount.Sign() == 0 {
		return nil
	}
	vault, err := t.account(t.vault)
	if err != nil {
		return err
	}
	if vault.Balance.Cmp(amount) < 0 {
		return ErrInsufficientBalance
	}
	vault.Balance = new(big.Int).Sub(vault.Balance, amount)
	return t.putAccount(t.vault, vault)
}

// Mint credits tokens to an account. Genesis funding and tests only; the
// ledger itself never mints.
func (t *Treasury) Mint(addr [20]byte, amount *big.Int) error {
	if addr == ([20]byte{}) {
		return ErrZeroAddress
	}
	if err := checkAmount(amount); err != nil {
		return err
	}
	account, err := t.account(addr)
	if err != nil {
		return err
	}
	account.Balance = new(big.Int).Add(account.Balance, amount)
	return t.putAccount(addr, account)
}

// BalanceOf returns the account's balance.
func (t *Treasury) BalanceOf(addr [20]byte) (*big.Int, error) {
	account, err := t.account(addr)
	if err != nil {
		return nil, err
	}
	return new(big.Int).Set(account.Balance), nil
}
