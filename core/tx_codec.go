package core

// Self-describing transaction encoding: a version byte, a type byte, then
// each field prefixed so a reader never needs an external schema. Used
// for the chain-file record format.

import "time"

const txCodecVersion = 1

// EncodeTransaction serializes tx into its self-describing on-disk form.
func EncodeTransaction(tx *Transaction) []byte {
	w := newByteWriter()
	w.byte(txCodecVersion)
	w.byte(byte(tx.Type))
	w.raw(tx.Address)
	w.raw(tx.PreviousPublicKey)

	w.bytesLP(tx.Data.Content)
	w.bytesLP(tx.Data.Code)

	w.uint32(uint32(len(tx.Data.Ledger)))
	for _, m := range tx.Data.Ledger {
		w.raw(m.To)
		w.uint64(m.Amount)
		w.shortBytesLP([]byte(m.TokenID))
	}

	w.uint32(uint32(len(tx.Data.Ownerships)))
	for _, o := range tx.Data.Ownerships {
		w.bytesLP(o.Secret)
		w.uint32(uint32(len(o.AuthorizedPublicKeys)))
		for _, pk := range o.AuthorizedPublicKeys {
			w.raw(pk)
		}
	}

	w.bytesLP(tx.PreviousSignature)
	w.bytesLP(tx.OriginSignature)

	if tx.ValidationStamp != nil {
		w.byte(1)
		encodeValidationStamp(w, tx.ValidationStamp)
	} else {
		w.byte(0)
	}

	w.uint32(uint32(len(tx.CrossValidationStamps)))
	for _, s := range tx.CrossValidationStamps {
		encodeCrossValidationStamp(w, s)
	}

	return w.bytes()
}

// DecodeTransaction is the inverse of EncodeTransaction.
func DecodeTransaction(buf []byte) (*Transaction, error) {
	r := newByteReader(buf)
	ver, err := r.byte()
	if err != nil {
		return nil, err
	}
	_ = ver
	typByte, err := r.byte()
	if err != nil {
		return nil, err
	}
	tx := &Transaction{Type: TransactionType(typByte)}

	if tx.Address, err = r.address(); err != nil {
		return nil, err
	}
	if tx.PreviousPublicKey, err = r.publicKey(); err != nil {
		return nil, err
	}
	if tx.Data.Content, err = r.bytesLP(); err != nil {
		return nil, err
	}
	if tx.Data.Code, err = r.bytesLP(); err != nil {
		return nil, err
	}

	ledgerCount, err := r.uint32()
	if err != nil {
		return nil, err
	}
	tx.Data.Ledger = make([]TransferMovement, 0, ledgerCount)
	for i := uint32(0); i < ledgerCount; i++ {
		to, err := r.address()
		if err != nil {
			return nil, err
		}
		amt, err := r.uint64()
		if err != nil {
			return nil, err
		}
		tok, err := r.shortBytesLP()
		if err != nil {
			return nil, err
		}
		tx.Data.Ledger = append(tx.Data.Ledger, TransferMovement{To: to, Amount: amt, TokenID: string(tok)})
	}

	ownCount, err := r.uint32()
	if err != nil {
		return nil, err
	}
	tx.Data.Ownerships = make([]Ownership, 0, ownCount)
	for i := uint32(0); i < ownCount; i++ {
		secret, err := r.bytesLP()
		if err != nil {
			return nil, err
		}
		keyCount, err := r.uint32()
		if err != nil {
			return nil, err
		}
		keys := make([]PublicKey, 0, keyCount)
		for j := uint32(0); j < keyCount; j++ {
			pk, err := r.publicKey()
			if err != nil {
				return nil, err
			}
			keys = append(keys, pk)
		}
		tx.Data.Ownerships = append(tx.Data.Ownerships, Ownership{Secret: secret, AuthorizedPublicKeys: keys})
	}

	if tx.PreviousSignature, err = r.bytesLP(); err != nil {
		return nil, err
	}
	if tx.OriginSignature, err = r.bytesLP(); err != nil {
		return nil, err
	}

	hasStamp, err := r.byte()
	if err != nil {
		return nil, err
	}
	if hasStamp == 1 {
		stamp, err := decodeValidationStamp(r)
		if err != nil {
			return nil, err
		}
		tx.ValidationStamp = stamp
	}

	stampCount, err := r.uint32()
	if err != nil {
		return nil, err
	}
	tx.CrossValidationStamps = make([]CrossValidationStamp, 0, stampCount)
	for i := uint32(0); i < stampCount; i++ {
		s, err := decodeCrossValidationStamp(r)
		if err != nil {
			return nil, err
		}
		tx.CrossValidationStamps = append(tx.CrossValidationStamps, s)
	}

	return tx, nil
}

func encodeValidationStamp(w *byteWriter, s *ValidationStamp) {
	w.int64(s.Timestamp.Unix())
	w.raw(s.ProofOfWork)
	w.bytesLP(s.ProofOfIntegrity)
	w.bytesLP(s.ProofOfElection)

	w.uint64(s.LedgerOperations.Fee)

	w.uint32(uint32(len(s.LedgerOperations.TransactionMovements)))
	for _, m := range s.LedgerOperations.TransactionMovements {
		w.raw(m.To)
		w.uint64(m.Amount)
		w.shortBytesLP([]byte(m.TokenID))
	}

	w.uint32(uint32(len(s.LedgerOperations.UnspentOutputs)))
	for _, u := range s.LedgerOperations.UnspentOutputs {
		w.raw(u.From)
		w.uint64(u.Amount)
		w.shortBytesLP([]byte(u.TokenID))
		w.int64(u.Timestamp.Unix())
	}

	w.uint32(uint32(len(s.LedgerOperations.NodeMovements)))
	for _, n := range s.LedgerOperations.NodeMovements {
		w.raw(n.To)
		w.uint64(n.Amount)
	}

	w.bytesLP(s.Signature)
}

func decodeValidationStamp(r *byteReader) (*ValidationStamp, error) {
	ts, err := r.int64()
	if err != nil {
		return nil, err
	}
	s := &ValidationStamp{Timestamp: time.Unix(ts, 0).UTC()}
	if s.ProofOfWork, err = r.publicKey(); err != nil {
		return nil, err
	}
	if s.ProofOfIntegrity, err = r.bytesLP(); err != nil {
		return nil, err
	}
	if s.ProofOfElection, err = r.bytesLP(); err != nil {
		return nil, err
	}
	if s.LedgerOperations.Fee, err = r.uint64(); err != nil {
		return nil, err
	}

	mc, err := r.uint32()
	if err != nil {
		return nil, err
	}
	for i := uint32(0); i < mc; i++ {
		to, err := r.address()
		if err != nil {
			return nil, err
		}
		amt, err := r.uint64()
		if err != nil {
			return nil, err
		}
		tok, err := r.shortBytesLP()
		if err != nil {
			return nil, err
		}
		s.LedgerOperations.TransactionMovements = append(s.LedgerOperations.TransactionMovements, TransferMovement{To: to, Amount: amt, TokenID: string(tok)})
	}

	uc, err := r.uint32()
	if err != nil {
		return nil, err
	}
	for i := uint32(0); i < uc; i++ {
		from, err := r.address()
		if err != nil {
			return nil, err
		}
		amt, err := r.uint64()
		if err != nil {
			return nil, err
		}
		tok, err := r.shortBytesLP()
		if err != nil {
			return nil, err
		}
		uts, err := r.int64()
		if err != nil {
			return nil, err
		}
		s.LedgerOperations.UnspentOutputs = append(s.LedgerOperations.UnspentOutputs, UnspentOutput{
			From: from, Amount: amt, TokenID: string(tok), Timestamp: time.Unix(uts, 0).UTC(),
		})
	}

	nc, err := r.uint32()
	if err != nil {
		return nil, err
	}
	for i := uint32(0); i < nc; i++ {
		to, err := r.publicKey()
		if err != nil {
			return nil, err
		}
		amt, err := r.uint64()
		if err != nil {
			return nil, err
		}
		s.LedgerOperations.NodeMovements = append(s.LedgerOperations.NodeMovements, NodeMovement{To: to, Amount: amt})
	}

	if s.Signature, err = r.bytesLP(); err != nil {
		return nil, err
	}
	return s, nil
}

func encodeCrossValidationStamp(w *byteWriter, s CrossValidationStamp) {
	w.raw(s.SignerPublicKey)
	w.bytesLP(s.Signature)
	w.uint32(uint32(len(s.Inconsistencies)))
	for _, inc := range s.Inconsistencies {
		w.shortBytesLP([]byte(inc))
	}
}

func decodeCrossValidationStamp(r *byteReader) (CrossValidationStamp, error) {
	var s CrossValidationStamp
	var err error
	if s.SignerPublicKey, err = r.publicKey(); err != nil {
		return s, err
	}
	if s.Signature, err = r.bytesLP(); err != nil {
		return s, err
	}
	ic, err := r.uint32()
	if err != nil {
		return s, err
	}
	for i := uint32(0); i < ic; i++ {
		b, err := r.shortBytesLP()
		if err != nil {
			return s, err
		}
		s.Inconsistencies = append(s.Inconsistencies, Inconsistency(b))
	}
	return s, nil
}
