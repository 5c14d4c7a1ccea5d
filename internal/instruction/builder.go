package instruction

import (
	"encoding/binary"
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// Build packs an instruction for the given operation kind. Accounts must
// match the kind's positional contract exactly; args are packed little-endian
// in schema order after the discriminator. Signed arguments (e.g. a negative
// bin id) are passed two's-complement in the low bits of the uint64.
//
// Build never inspects balances or mutates anything: it is a pure encoder
// over already-resolved addresses and already-computed quote numbers.
func Build(kind Kind, programID solana.PublicKey, accounts []solana.PublicKey, args []uint64) (*TradeInstruction, error) {
	sc, ok := schemas[kind]
	if !ok {
		return nil, fmt.Errorf("%w: unknown operation kind %q", ErrSchemaViolation, kind)
	}

	if len(accounts) != len(sc.accounts) {
		return nil, fmt.Errorf("%w: %s wants %d accounts, got %d",
			ErrSchemaViolation, kind, len(sc.accounts), len(accounts))
	}

	wantArgs := len(sc.args)
	if sc.optionalTail != "" {
		if len(args) != wantArgs && len(args) != wantArgs+1 {
			return nil, fmt.Errorf("%w: %s wants %d or %d args, got %d",
				ErrSchemaViolation, kind, wantArgs, wantArgs+1, len(args))
		}
	} else if len(args) != wantArgs {
		return nil, fmt.Errorf("%w: %s wants %d args, got %d",
			ErrSchemaViolation, kind, wantArgs, len(args))
	}

	data := make([]byte, 0, len(sc.discriminator)+9*len(args)+1+sc.trailingPadding)
	data = append(data, sc.discriminator...)

	for i, spec := range sc.args {
		packed, err := packArg(spec, args[i])
		if err != nil {
			return nil, fmt.Errorf("%w: %s arg %q: %v", ErrSchemaViolation, kind, spec.name, err)
		}
		data = append(data, packed...)
	}

	if sc.optionalTail != "" {
		if len(args) > wantArgs {
			var tail [9]byte
			tail[0] = 1
			binary.LittleEndian.PutUint64(tail[1:], args[wantArgs])
			data = append(data, tail[:]...)
		} else {
			data = append(data, 0)
		}
	}
	if sc.trailingPadding > 0 {
		data = append(data, make([]byte, sc.trailingPadding)...)
	}

	metas := make([]*solana.AccountMeta, len(accounts))
	for i, spec := range sc.accounts {
		metas[i] = &solana.AccountMeta{
			PublicKey:  accounts[i],
			IsSigner:   spec.signer,
			IsWritable: spec.writable,
		}
	}

	return &TradeInstruction{
		programID: programID,
		accounts:  metas,
		data:      data,
	}, nil
}

func packArg(spec argSpec, v uint64) ([]byte, error) {
	if spec.width < 8 && v>>(8*spec.width) != 0 {
		return nil, fmt.Errorf("value %d does not fit in %d bytes", v, spec.width)
	}
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], v)
	return buf[:spec.width], nil
}

// AccountNames returns the positional account contract for an operation kind,
// in order. Useful for diagnostics when a caller assembles account lists.
func AccountNames(kind Kind) ([]string, error) {
	sc, ok := schemas[kind]
	if !ok {
		return nil, fmt.Errorf("%w: unknown operation kind %q", ErrSchemaViolation, kind)
	}
	names := make([]string, len(sc.accounts))
	for i, a := range sc.accounts {
		names[i] = a.name
	}
	return names, nil
}
