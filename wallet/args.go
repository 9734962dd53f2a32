package wallet

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

func (t TokenRef) Validate() error {
	return validation.ValidateStruct(&t,
		validation.Field(&t.ChainID, validation.Required),
		validation.Field(&t.TokenID, validation.When(t.IsErc721, validation.Required)),
	)
}

// AccountRef is the part of an account a balance lookup needs.
type AccountRef struct {
	Address   string
	Coin      CoinType
	KeyringID string
}

func (a AccountRef) Validate() error {
	return validation.ValidateStruct(&a,
		validation.Field(&a.Address, validation.Required),
	)
}

// BalanceArg selects the balance of one token held by one account.
type BalanceArg struct {
	Account AccountRef
	Token   TokenRef
}

func (b BalanceArg) Validate() error {
	return validation.ValidateStruct(&b,
		validation.Field(&b.Account),
		validation.Field(&b.Token),
	)
}

// CombinedBalanceArg selects a token summed across every account of Coin.
type CombinedBalanceArg struct {
	Token TokenRef
	Coin  CoinType
}

func (c CombinedBalanceArg) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Token),
	)
}

// SelectedAccountArg is the setSelectedAccount payload.
type SelectedAccountArg struct {
	Address string
	Coin    CoinType
}

func (s SelectedAccountArg) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.Address, validation.Required),
	)
}

// Eip1559Change records whether a chain supports EIP-1559 fees.
type Eip1559Change struct {
	ChainID   string
	IsEip1559 bool
}

func (e Eip1559Change) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.ChainID, validation.Required),
	)
}

// UserAssetVisibleArg toggles the visibility of a user asset.
type UserAssetVisibleArg struct {
	Token   BlockchainToken
	Visible bool
}

func (u UserAssetVisibleArg) Validate() error {
	return validation.ValidateStruct(&u,
		validation.Field(&u.Token),
	)
}

func (t BlockchainToken) Validate() error {
	return t.Ref().Validate()
}
