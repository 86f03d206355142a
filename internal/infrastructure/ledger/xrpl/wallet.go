package xrpl

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"

	"github.com/TheTrueTranslate/kototsute-sub000/internal/core/ports"
	"github.com/btcsuite/btcd/btcec/v2"
	"golang.org/x/crypto/ripemd160"
)

// Base58 dictionary used by the ledger, different from the bitcoin one.
const alphabet = "rpshnaf39wBUDNEGHJKLM4PQRST7VWXYZ2bcdeCg65jkm8oFqi1tuvAxyz"

const (
	accountIDPrefix  = 0x00
	familySeedPrefix = 0x21
)

// generateWallet derives a secp256k1 keypair locally from fresh seed entropy,
// mirroring the derivation a node performs for wallet_propose.
func generateWallet() (*ports.Wallet, error) {
	entropy := make([]byte, 16)
	if _, err := rand.Read(entropy); err != nil {
		return nil, err
	}

	accountKey, err := deriveAccountKey(entropy)
	if err != nil {
		return nil, err
	}
	pubKey := accountKey.PubKey().SerializeCompressed()

	return &ports.Wallet{
		Address: encodeAddress(accountID(pubKey)),
		Secret:  encodeSeed(entropy),
	}, nil
}

// deriveAccountKey follows the ledger's two-stage scheme: a root key derived
// from the seed, then the first account key of the root family.
func deriveAccountKey(entropy []byte) (*btcec.PrivateKey, error) {
	rootScalar, err := firstValidScalar(entropy)
	if err != nil {
		return nil, err
	}
	rootKey, _ := btcec.PrivKeyFromBytes(scalarBytes(rootScalar))
	rootPub := rootKey.PubKey().SerializeCompressed()

	family := make([]byte, 0, len(rootPub)+4)
	family = append(family, rootPub...)
	family = append(family, 0, 0, 0, 0)
	intermediate, err := firstValidScalar(family)
	if err != nil {
		return nil, err
	}

	order := btcec.S256().N
	accountScalar := new(big.Int).Add(rootScalar, intermediate)
	accountScalar.Mod(accountScalar, order)
	if accountScalar.Sign() == 0 {
		return nil, fmt.Errorf("derived zero account key")
	}

	accountKey, _ := btcec.PrivKeyFromBytes(scalarBytes(accountScalar))
	return accountKey, nil
}

// firstValidScalar hashes seed||counter with sha512-half, incrementing the
// counter until the result is a valid curve scalar.
func firstValidScalar(seed []byte) (*big.Int, error) {
	order := btcec.S256().N
	buf := make([]byte, len(seed)+4)
	copy(buf, seed)
	for counter := uint32(0); counter < 1000; counter++ {
		binary.BigEndian.PutUint32(buf[len(seed):], counter)
		digest := sha512.Sum512(buf)
		scalar := new(big.Int).SetBytes(digest[:32])
		if scalar.Sign() > 0 && scalar.Cmp(order) < 0 {
			return scalar, nil
		}
	}
	return nil, fmt.Errorf("failed to derive a valid key from seed")
}

func scalarBytes(scalar *big.Int) []byte {
	buf := make([]byte, 32)
	scalar.FillBytes(buf)
	return buf
}

func accountID(pubKey []byte) []byte {
	inner := sha256.Sum256(pubKey)
	hasher := ripemd160.New()
	hasher.Write(inner[:])
	return hasher.Sum(nil)
}

func encodeAddress(accountID []byte) string {
	payload := append([]byte{accountIDPrefix}, accountID...)
	return base58Check(payload)
}

func encodeSeed(entropy []byte) string {
	payload := append([]byte{familySeedPrefix}, entropy...)
	return base58Check(payload)
}

func base58Check(payload []byte) string {
	first := sha256.Sum256(payload)
	second := sha256.Sum256(first[:])
	data := append(payload, second[:4]...)

	num := new(big.Int).SetBytes(data)
	base := big.NewInt(58)
	mod := new(big.Int)
	var sb strings.Builder
	for num.Sign() > 0 {
		num.DivMod(num, base, mod)
		sb.WriteByte(alphabet[mod.Int64()])
	}
	for _, b := range data {
		if b != 0 {
			break
		}
		sb.WriteByte(alphabet[0])
	}

	encoded := []byte(sb.String())
	for i, j := 0, len(encoded)-1; i < j; i, j = i+1, j-1 {
		encoded[i], encoded[j] = encoded[j], encoded[i]
	}
	return string(encoded)
}

func hexEncodeUpper(s string) string {
	return strings.ToUpper(hex.EncodeToString([]byte(s)))
}
