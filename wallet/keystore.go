package wallet

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/paperwall/paperwall-agent/cryptoutils"
	"github.com/paperwall/paperwall-agent/encmode"
	"github.com/paperwall/paperwall-agent/interfaces"
	"github.com/paperwall/paperwall-agent/session"
)

// PromptFunc asks the user for the wallet password. It is invoked at most
// once per address per process thanks to the session cache.
type PromptFunc func() (string, error)

// Keystore combines the key lifecycle, the mode detector and a wallet store
// into the wallet operations the CLI and agent API consume.
type Keystore struct {
	store     interfaces.WalletStore
	detector  *encmode.Detector
	lifecycle *Lifecycle
	cache     *session.PasswordCache
	log       *slog.Logger
}

// NewKeystore wires a keystore from its collaborators. The cache may be nil
// for flows that never touch password mode.
func NewKeystore(store interfaces.WalletStore, engine *cryptoutils.Engine, src cryptoutils.RandSource, cache *session.PasswordCache, log *slog.Logger) *Keystore {
	return &Keystore{
		store:     store,
		detector:  encmode.NewDetector(engine),
		lifecycle: NewLifecycle(src),
		cache:     cache,
		log:       log,
	}
}

// Init generates a fresh private key, encrypts it under the requested mode
// and persists the wallet document. Fails with ErrWalletExists rather than
// overwriting an existing wallet.
func (k *Keystore) Init(ctx context.Context, modeName interfaces.ModeName, secret string) (*interfaces.WalletDocument, error) {
	if _, err := k.store.Load(ctx); err == nil {
		return nil, fmt.Errorf("%w at %s", interfaces.ErrWalletExists, k.store.LocationURI())
	} else if !errors.Is(err, interfaces.ErrWalletNotFound) {
		return nil, err
	}

	mode, err := k.detector.ResolveMode(modeName)
	if err != nil {
		return nil, err
	}
	if modeName == interfaces.ModePassword {
		if err := encmode.ValidatePasswordStrength(secret); err != nil {
			return nil, err
		}
	}

	privateKeyHex, err := k.lifecycle.GeneratePrivateKey()
	if err != nil {
		return nil, err
	}
	address, err := DeriveAddress(privateKeyHex)
	if err != nil {
		return nil, err
	}

	record, err := k.lifecycle.EncryptKey(privateKeyHex, mode, secret)
	if err != nil {
		return nil, err
	}

	doc := &interfaces.WalletDocument{
		Address:            address,
		EncryptedKeyRecord: record,
		EncryptionMode:     &modeName,
	}
	if err := k.store.Save(ctx, doc); err != nil {
		return nil, err
	}

	k.log.Info("Wallet initialized",
		slog.String("address", address),
		slog.String("mode", string(modeName)),
		slog.String("store", k.store.LocationURI()))
	return doc, nil
}

// Load reads the wallet document from the store.
func (k *Keystore) Load(ctx context.Context) (*interfaces.WalletDocument, error) {
	return k.store.Load(ctx)
}

// Address returns the wallet's payment address without decrypting anything.
func (k *Keystore) Address(ctx context.Context) (string, error) {
	doc, err := k.store.Load(ctx)
	if err != nil {
		return "", err
	}
	return doc.Address, nil
}

// Unlock decrypts the wallet private key. For password-mode wallets the
// password is taken from the session cache, prompting via promptFn on the
// first use; other modes need no secret. The returned key is owned by the
// caller for the duration of one operation and must not be retained.
func (k *Keystore) Unlock(ctx context.Context, promptFn PromptFunc) (string, error) {
	doc, err := k.store.Load(ctx)
	if err != nil {
		return "", err
	}

	mode, err := k.detector.DetectAndResolve(doc.Metadata())
	if err != nil {
		return "", err
	}

	var secret string
	if mode.Name() == interfaces.ModePassword {
		secret, err = k.promptPassword(doc.Address, promptFn)
		if err != nil {
			return "", err
		}
	}

	privateKeyHex, err := k.lifecycle.DecryptKey(doc.EncryptedKeyRecord, mode, secret)
	if err != nil {
		// A cached wrong password would otherwise poison every later
		// attempt in this process.
		if mode.Name() == interfaces.ModePassword && errors.Is(err, cryptoutils.ErrAuthentication) && k.cache != nil {
			k.cache.Remove(doc.Address)
		}
		return "", err
	}
	return privateKeyHex, nil
}

// Reencrypt migrates the wallet to a new mode (or rotates the password).
// The new record gets a fresh salt and IV and replaces the old one wholesale.
func (k *Keystore) Reencrypt(ctx context.Context, newModeName interfaces.ModeName, newSecret string, promptFn PromptFunc) error {
	privateKeyHex, err := k.Unlock(ctx, promptFn)
	if err != nil {
		return err
	}

	newMode, err := k.detector.ResolveMode(newModeName)
	if err != nil {
		return err
	}
	if newModeName == interfaces.ModePassword {
		if err := encmode.ValidatePasswordStrength(newSecret); err != nil {
			return err
		}
	}

	record, err := k.lifecycle.EncryptKey(privateKeyHex, newMode, newSecret)
	if err != nil {
		return err
	}

	doc, err := k.store.Load(ctx)
	if err != nil {
		return err
	}
	doc.EncryptedKeyRecord = record
	doc.EncryptionMode = &newModeName

	if err := k.store.Save(ctx, doc); err != nil {
		return err
	}
	if k.cache != nil {
		k.cache.Remove(doc.Address)
	}

	k.log.Info("Wallet re-encrypted",
		slog.String("address", doc.Address),
		slog.String("mode", string(newModeName)))
	return nil
}

func (k *Keystore) promptPassword(address string, promptFn PromptFunc) (string, error) {
	if k.cache == nil {
		if promptFn == nil {
			return "", errors.New("wallet is password-encrypted but no password prompt is available")
		}
		return promptFn()
	}
	return k.cache.GetOrPrompt(address, func() (string, error) {
		if promptFn == nil {
			return "", errors.New("wallet is password-encrypted but no password prompt is available")
		}
		return promptFn()
	})
}
