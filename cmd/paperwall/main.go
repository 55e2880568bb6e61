// The paperwall command manages the agent wallet and executes payments, either
// one-shot from the command line or as a local HTTP agent.
package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/urfave/cli/v2"
	"golang.org/x/term"

	"github.com/paperwall/paperwall-agent/cmd/flags"
	"github.com/paperwall/paperwall-agent/cryptoutils"
	"github.com/paperwall/paperwall-agent/httpserver"
	"github.com/paperwall/paperwall-agent/interfaces"
	"github.com/paperwall/paperwall-agent/payment"
	"github.com/paperwall/paperwall-agent/registry"
	"github.com/paperwall/paperwall-agent/session"
	"github.com/paperwall/paperwall-agent/wallet"
	"github.com/paperwall/paperwall-agent/walletstore"
)

var payFlags = []cli.Flag{
	&cli.StringFlag{
		Name:     "url",
		Required: true,
		Usage:    "publisher payment endpoint to submit the signed payment to",
	},
	flags.NetworkFlag,
	&cli.StringFlag{
		Name:     "amount",
		Required: true,
		Usage:    "amount in smallest token units, e.g. 10000 for 0.01 USDC",
	},
	&cli.StringFlag{
		Name:     "pay-to",
		Required: true,
		Usage:    "recipient address",
	},
	flags.AllowedHostsFlag,
}

func main() {
	app := &cli.App{
		Name:  "paperwall",
		Usage: "Wallet management and payment agent for paywalled content",
		Flags: flags.CommonFlags,
		Commands: []*cli.Command{
			{
				Name:   "init",
				Usage:  "Create a new wallet",
				Flags:  []cli.Flag{flags.EncryptionModeFlag},
				Action: cmdInit,
			},
			{
				Name:   "address",
				Usage:  "Print the wallet's payment address",
				Action: cmdAddress,
			},
			{
				Name:   "reencrypt",
				Usage:  "Migrate the wallet to a different encryption mode or rotate the password",
				Flags:  []cli.Flag{flags.EncryptionModeFlag},
				Action: cmdReencrypt,
			},
			{
				Name:   "pay",
				Usage:  "Sign and submit one payment",
				Flags:  append([]cli.Flag{flags.NetworkConfigFlag}, payFlags...),
				Action: cmdPay,
			},
			{
				Name:   "serve",
				Usage:  "Run the local agent API",
				Flags:  flags.ServerFlags,
				Action: cmdServe,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// env holds the collaborators every command needs.
type env struct {
	keystore *wallet.Keystore
	cache    *session.PasswordCache
	networks *registry.Registry
	log      *slog.Logger
}

func setup(cCtx *cli.Context) (*env, error) {
	logger := flags.SetupLogger(cCtx)

	store, err := walletstore.NewStoreFactory(logger).StoreFor(cCtx.String(flags.WalletURIFlag.Name))
	if err != nil {
		return nil, err
	}

	networks, err := registry.Load(cCtx.String(flags.NetworkConfigFlag.Name))
	if err != nil {
		return nil, err
	}

	cache := session.NewPasswordCache()
	cache.RegisterShutdownHook()

	engine := cryptoutils.NewEngine(cryptoutils.CryptoRand)
	return &env{
		keystore: wallet.NewKeystore(store, engine, cryptoutils.CryptoRand, cache, logger),
		cache:    cache,
		networks: networks,
		log:      logger,
	}, nil
}

func cmdInit(cCtx *cli.Context) error {
	e, err := setup(cCtx)
	if err != nil {
		return err
	}
	defer e.cache.Clear()

	modeName := interfaces.ModeName(cCtx.String(flags.EncryptionModeFlag.Name))

	var secret string
	if modeName == interfaces.ModePassword {
		secret, err = promptNewPassword()
		if err != nil {
			return err
		}
	}

	doc, err := e.keystore.Init(cCtx.Context, modeName, secret)
	if err != nil {
		return err
	}
	fmt.Println(doc.Address)
	return nil
}

func cmdAddress(cCtx *cli.Context) error {
	e, err := setup(cCtx)
	if err != nil {
		return err
	}

	address, err := e.keystore.Address(cCtx.Context)
	if err != nil {
		return err
	}
	fmt.Println(address)
	return nil
}

func cmdReencrypt(cCtx *cli.Context) error {
	e, err := setup(cCtx)
	if err != nil {
		return err
	}
	defer e.cache.Clear()

	newMode := interfaces.ModeName(cCtx.String(flags.EncryptionModeFlag.Name))

	var newSecret string
	if newMode == interfaces.ModePassword {
		newSecret, err = promptNewPassword()
		if err != nil {
			return err
		}
	}

	if err := e.keystore.Reencrypt(cCtx.Context, newMode, newSecret, promptPassword); err != nil {
		return err
	}

	address, err := e.keystore.Address(cCtx.Context)
	if err != nil {
		return err
	}
	fmt.Printf("wallet %s re-encrypted as %s\n", address, newMode)
	return nil
}

func cmdPay(cCtx *cli.Context) error {
	e, err := setup(cCtx)
	if err != nil {
		return err
	}
	defer e.cache.Clear()

	network, err := resolveNetwork(e.networks, cCtx.String(flags.NetworkFlag.Name))
	if err != nil {
		return err
	}

	terms := interfaces.PaymentTerms{
		Network: network.CAIP2,
		Amount:  cCtx.String("amount"),
		PayTo:   cCtx.String("pay-to"),
	}
	if err := terms.Validate(); err != nil {
		return err
	}

	privateKeyHex, err := e.keystore.Unlock(cCtx.Context, promptPassword)
	if err != nil {
		return err
	}

	signed, err := payment.NewSigner(cryptoutils.CryptoRand).SignPayment(privateKeyHex, network.PaymentDomain(), terms)
	if err != nil {
		return err
	}

	amountFormatted, err := payment.FormatAmount(terms.Amount, network.Token.Decimals, network.Token.Symbol)
	if err != nil {
		return err
	}

	submitter := payment.NewSubmitter(&payment.SubmitterConfig{
		AllowedHosts: cCtx.StringSlice(flags.AllowedHostsFlag.Name),
		Log:          e.log,
	})
	receipt, err := submitter.SubmitPayment(cCtx.Context, cCtx.String("url"), signed, amountFormatted)
	if err != nil {
		return err
	}

	out, err := json.MarshalIndent(receipt, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))

	if receipt.Stage == payment.StageDeclined {
		return fmt.Errorf("payment declined: %s", receipt.Reason)
	}
	return nil
}

func cmdServe(cCtx *cli.Context) error {
	e, err := setup(cCtx)
	if err != nil {
		return err
	}
	defer e.cache.Clear()
	logger := e.log

	// Prompt for the wallet password now, while a terminal is attached. The
	// API handler cannot prompt mid-request.
	if _, err := e.keystore.Unlock(cCtx.Context, promptPassword); err != nil {
		return fmt.Errorf("wallet must unlock before serving: %w", err)
	}

	handler := httpserver.NewHandler(&httpserver.HandlerConfig{
		Keystore: e.keystore,
		Signer:   payment.NewSigner(cryptoutils.CryptoRand),
		Submitter: payment.NewSubmitter(&payment.SubmitterConfig{
			AllowedHosts: cCtx.StringSlice(flags.AllowedHostsFlag.Name),
			Log:          logger,
		}),
		Networks: e.networks,
		Log:      logger,
	})

	server, err := httpserver.New(flags.ConfigureServer(cCtx, logger), handler)
	if err != nil {
		return err
	}
	server.RunInBackground()

	exit := make(chan os.Signal, 1)
	signal.Notify(exit, os.Interrupt, syscall.SIGTERM)

	logger.Info("Agent is running, press Ctrl+C to stop")
	<-exit
	logger.Info("Shutdown signal received")

	server.Shutdown()
	e.cache.Clear()
	logger.Info("Agent shutdown complete")
	return nil
}

// resolveNetwork accepts either a CAIP-2 id or a registry label.
func resolveNetwork(r *registry.Registry, name string) (registry.Network, error) {
	if strings.Contains(name, ":") {
		return r.Lookup(name)
	}
	return r.LookupLabel(name)
}

// promptPassword reads the wallet password without echo when stdin is a
// terminal, falling back to a plain line read otherwise (pipes).
func promptPassword() (string, error) {
	return readPassword("Wallet password: ")
}

func readPassword(label string) (string, error) {
	fmt.Fprint(os.Stderr, label)
	defer fmt.Fprintln(os.Stderr)

	if term.IsTerminal(int(os.Stdin.Fd())) {
		raw, err := term.ReadPassword(int(os.Stdin.Fd()))
		if err != nil {
			return "", err
		}
		return string(raw), nil
	}

	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func promptNewPassword() (string, error) {
	first, err := readPassword("New wallet password: ")
	if err != nil {
		return "", err
	}
	second, err := readPassword("Confirm password: ")
	if err != nil {
		return "", err
	}
	if first != second {
		return "", errors.New("passwords do not match")
	}
	return first, nil
}
