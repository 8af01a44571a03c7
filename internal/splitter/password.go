package splitter

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// OwnerPassword derives the permissions password from the employee
// identity number. It is deterministic so a regenerated artifact carries
// the same protection, and distinct from the user password so recipients
// cannot lift the print-only restriction. An empty identity falls back to
// a fixed seed; such artifacts open without a password.
func OwnerPassword(nationalID string) string {
	seed := nationalID
	if seed == "" {
		seed = "owner"
	}
	sum := sha256.Sum256(fmt.Appendf(nil, "payslip-owner-%s-secret", seed))
	return hex.EncodeToString(sum[:])[:32]
}
