package storage

// FieldCipher is the encryption boundary used by every repository. Only this
// package encrypts on write and decrypts on read.
type FieldCipher interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(value string) (string, error)
	BlindIndex(value string) string
}

func encryptAll(c FieldCipher, values ...string) ([]string, error) {
	out := make([]string, len(values))
	for i, v := range values {
		enc, err := c.Encrypt(v)
		if err != nil {
			return nil, err
		}
		out[i] = enc
	}
	return out, nil
}
