package store

// Cipher transforms message bodies at the storage boundary: Encode runs
// before a body is persisted, Decode after it is read back. Both must
// be pure and total. The store never inspects stored bodies directly,
// so a real cryptographic implementation can replace the identity one
// without touching storage or sync code.
type Cipher interface {
	Encode(plaintext string) string
	Decode(stored string) string
}

type identityCipher struct{}

func (identityCipher) Encode(plaintext string) string { return plaintext }
func (identityCipher) Decode(stored string) string    { return stored }

// IdentityCipher returns the pass-through cipher used until a real
// encryption boundary is swapped in.
func IdentityCipher() Cipher {
	return identityCipher{}
}
