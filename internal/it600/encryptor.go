package it600

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/md5" // nolint:gosec
	"errors"
	"fmt"
	"strings"
)

// AllZeroEUID is accepted by some gateway units that reject the EUID
// printed on their label.
const AllZeroEUID = "0000000000000000"

// cbcIV is the fixed initialisation vector used by the gateway firmware.
// Every request and response uses the same IV.
var cbcIV = []byte{
	0x88, 0xA6, 0xB0, 0x79, 0x5D, 0x85, 0xDB, 0xFC,
	0xE6, 0xE0, 0xB3, 0xE9, 0xA6, 0x29, 0x65, 0x4B,
}

// Encryptor performs AES-CBC encryption of gateway payloads.
//
// The 32-byte key is MD5("Salus-" + lowercase(euid)) followed by 16 zero
// bytes; the gateway firmware derives the same key from its own EUID.
// Payloads are PKCS#7 padded to the 16-byte block size.
//
// Thread Safety:
//   - Safe for concurrent use; each call creates its own block mode.
type Encryptor struct {
	key []byte
}

// NewEncryptor creates an Encryptor for the given gateway EUID.
// The EUID is case-insensitive.
func NewEncryptor(euid string) *Encryptor {
	seed := md5.Sum([]byte("Salus-" + strings.ToLower(euid))) // nolint:gosec
	key := make([]byte, 32)
	copy(key, seed[:])
	return &Encryptor{key: key}
}

// Encrypt encrypts a plaintext payload for transmission to the gateway.
func (e *Encryptor) Encrypt(plain []byte) ([]byte, error) {
	block, err := aes.NewCipher(e.key)
	if err != nil {
		return nil, fmt.Errorf("creating cipher: %w", err)
	}

	padded := pkcs7Pad(plain, block.BlockSize())
	out := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, cbcIV).CryptBlocks(out, padded)
	return out, nil
}

// Decrypt decrypts a gateway response payload.
// Returns ErrMalformedResponse (wrapped) when the ciphertext length or
// padding is invalid, which usually means the EUID is wrong.
func (e *Encryptor) Decrypt(ciphertext []byte) ([]byte, error) {
	block, err := aes.NewCipher(e.key)
	if err != nil {
		return nil, fmt.Errorf("creating cipher: %w", err)
	}

	if len(ciphertext) == 0 || len(ciphertext)%block.BlockSize() != 0 {
		return nil, fmt.Errorf("%w: ciphertext length %d not a multiple of block size", ErrMalformedResponse, len(ciphertext))
	}

	out := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, cbcIV).CryptBlocks(out, ciphertext)

	plain, err := pkcs7Unpad(out, block.BlockSize())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}
	return plain, nil
}

func pkcs7Pad(data []byte, blockSize int) []byte {
	pad := blockSize - (len(data) % blockSize)
	padding := bytes.Repeat([]byte{byte(pad)}, pad)
	return append(data, padding...)
}

func pkcs7Unpad(data []byte, blockSize int) ([]byte, error) {
	if len(data) == 0 || len(data)%blockSize != 0 {
		return nil, errors.New("invalid padding size")
	}
	pad := int(data[len(data)-1])
	if pad == 0 || pad > blockSize || pad > len(data) {
		return nil, errors.New("invalid padding")
	}
	for i := 0; i < pad; i++ {
		if data[len(data)-1-i] != byte(pad) {
			return nil, errors.New("invalid padding")
		}
	}
	return data[:len(data)-pad], nil
}
