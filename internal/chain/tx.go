package chain

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
	associatedtokenaccount "github.com/gagliardetto/solana-go/programs/associated-token-account"
	computebudget "github.com/gagliardetto/solana-go/programs/compute-budget"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/gagliardetto/solana-go/programs/token"

	"github.com/solstice-app/wallet-server/internal/model"
)

// TransferInstruction builds a native transfer of lamports.
func TransferInstruction(from, to solana.PublicKey, lamports uint64) solana.Instruction {
	return system.NewTransferInstruction(lamports, from, to).Build()
}

// TokenTransferInstruction builds a checked SPL token transfer between
// associated token accounts.
func TokenTransferInstruction(source, mint, destination, owner solana.PublicKey, amount uint64, decimals uint8) solana.Instruction {
	return token.NewTransferCheckedInstruction(amount, decimals, source, mint, destination, owner, nil).Build()
}

// CreateTokenAccountInstruction builds the instruction creating the owner's
// associated token account for mint, funded by payer.
func CreateTokenAccountInstruction(payer, owner, mint solana.PublicKey) solana.Instruction {
	return associatedtokenaccount.NewCreateInstruction(payer, owner, mint).Build()
}

// PriorityFeeInstruction attaches a compute unit price in micro-lamports.
func PriorityFeeInstruction(microLamports uint64) solana.Instruction {
	return computebudget.NewSetComputeUnitPriceInstruction(microLamports).Build()
}

// MemoInstruction attaches a UTF-8 memo signed by signer.
func MemoInstruction(memo string, signer solana.PublicKey) solana.Instruction {
	return solana.NewInstruction(
		solana.MemoProgramID,
		solana.AccountMetaSlice{solana.NewAccountMeta(signer, false, true)},
		[]byte(memo),
	)
}

// FindTokenAccount resolves the associated token account address for an
// owner and mint.
func FindTokenAccount(owner, mint solana.PublicKey) (solana.PublicKey, error) {
	ata, _, err := solana.FindAssociatedTokenAddress(owner, mint)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("failed to derive associated token account: %w", err)
	}
	return ata, nil
}

// BuildTransaction assembles instructions into a transaction paid for by
// feePayer on the given blockhash.
func BuildTransaction(instructions []solana.Instruction, blockhash model.Blockhash, feePayer solana.PublicKey) (*solana.Transaction, error) {
	tx, err := solana.NewTransaction(instructions, blockhash.Hash, solana.TransactionPayer(feePayer))
	if err != nil {
		return nil, fmt.Errorf("failed to build transaction: %w", err)
	}
	return tx, nil
}

// SignTransaction fills tx.Signatures using the provided signers, matched to
// the message's required signer accounts in order. Every required signer must
// be present; extra signers are ignored.
func SignTransaction(tx *solana.Transaction, signers ...model.TxSigner) error {
	message, err := tx.Message.MarshalBinary()
	if err != nil {
		return fmt.Errorf("failed to serialize message: %w", err)
	}

	required := int(tx.Message.Header.NumRequiredSignatures)
	if required > len(tx.Message.AccountKeys) {
		return fmt.Errorf("message requires %d signatures but has %d account keys", required, len(tx.Message.AccountKeys))
	}

	signatures := make([]solana.Signature, 0, required)
	for _, account := range tx.Message.AccountKeys[:required] {
		var signed bool
		for _, signer := range signers {
			if signer.PublicKey().Equals(account) {
				sig, err := signer.SignMessage(message)
				if err != nil {
					return fmt.Errorf("failed to sign for %s: %w", account, err)
				}
				signatures = append(signatures, sig)
				signed = true
				break
			}
		}
		if !signed {
			return fmt.Errorf("no signer available for required account %s", account)
		}
	}

	tx.Signatures = signatures
	return nil
}
