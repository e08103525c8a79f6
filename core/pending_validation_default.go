package core

// DefaultPendingValidation performs the structural checks every mining
// worker runs before it starts accumulating a ValidationContext: the
// transaction must carry a well-formed address, a previous public key and
// an origin signature, and its declared type must be one this node
// recognizes. Ledger movements are not checked.
// Business-rule validation (smart contract conditions, token rules, …) is
// out of scope.

type DefaultPendingValidation struct {
	crypto Crypto
}

// NewDefaultPendingValidation returns the structural PendingTransactionValidation.
func NewDefaultPendingValidation(crypto Crypto) *DefaultPendingValidation {
	return &DefaultPendingValidation{crypto: crypto}
}

func (v *DefaultPendingValidation) Validate(tx *Transaction) error {
	if tx == nil {
		return &UserRequestInvalidError{Reason: "nil transaction"}
	}
	if !v.crypto.ValidAddress(tx.Address) {
		return &UserRequestInvalidError{Reason: "malformed transaction address"}
	}
	if len(tx.PreviousPublicKey) == 0 {
		return &UserRequestInvalidError{Reason: "missing previous public key"}
	}
	if len(tx.OriginSignature) == 0 {
		return &UserRequestInvalidError{Reason: "missing origin signature"}
	}
	if _, ok := txTypeNames[tx.Type]; !ok {
		return &UserRequestInvalidError{Reason: "unrecognized transaction type"}
	}
	return nil
}
