package flags

import (
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"code.cloudfoundry.org/bytefmt"
	"github.com/mattn/go-isatty"
	"github.com/nojima/httpbody/exchange"
	"github.com/nojima/httpbody/formdata"
	"github.com/nojima/httpbody/input"
	"github.com/nojima/httpbody/output"
	"github.com/pborman/getopt"
	"github.com/pkg/errors"
)

var (
	reNumber  = regexp.MustCompile(`^[0-9.]+$`)
	reInteger = regexp.MustCompile(`^[0-9]+$`)
)

type Usage interface {
	PrintUsage(w io.Writer)
}

type OptionSet struct {
	InputOptions    input.Options
	ExchangeOptions exchange.Options
	OutputOptions   output.Options

	PrintVersion bool
	PrintLicense bool
	Debug        bool
}

type terminalInfo struct {
	stdinIsTerminal  bool
	stdoutIsTerminal bool
}

// formLimitFlags holds the raw values of the --max-* flags.
type formLimitFlags struct {
	fieldSize string
	fileSize  string
	fields    string
	files     string
	parts     string
}

func Parse(args []string) ([]string, Usage, *OptionSet, error) {
	return parse(args, terminalInfo{
		stdinIsTerminal:  isatty.IsTerminal(os.Stdin.Fd()),
		stdoutIsTerminal: isatty.IsTerminal(os.Stdout.Fd()),
	})
}

func parse(args []string, terminalInfo terminalInfo) ([]string, Usage, *OptionSet, error) {
	inputOptions := input.Options{}
	outputOptions := output.Options{}
	exchangeOptions := exchange.Options{}
	optionSet := &OptionSet{}
	var ignoreStdin bool
	var authFlag string
	var limitFlags formLimitFlags
	printFlag := "\000" // "\000" is a special value that indicates user did not specified --print
	timeout := "30s"
	verifyFlag := "yes"

	flagSet := getopt.New()
	flagSet.SetParameters("[METHOD] URL [REQUEST_ITEM [REQUEST_ITEM ...]]")
	flagSet.BoolVarLong(&inputOptions.JSON, "json", 'j', "data items are serialized as JSON (default)")
	flagSet.BoolVarLong(&inputOptions.Form, "form", 'f', "data items are serialized as form fields")
	flagSet.StringVarLong(&printFlag, "print", 'p', "specifies what the output should contain (HBhb)")
	flagSet.BoolVarLong(&ignoreStdin, "ignore-stdin", 0, "do not attempt to read stdin")
	flagSet.StringVarLong(&timeout, "timeout", 0, "Timeout seconds that you allow the whole operation to take")
	flagSet.BoolVarLong(&exchangeOptions.FollowRedirects, "follow", 'F', "follow 30x Location redirects")
	flagSet.StringVarLong(&authFlag, "auth", 'a', "colon-separated username and password for authentication", "USER[:PASS]")
	flagSet.StringVarLong(&verifyFlag, "verify", 0, "set to \"no\" to skip checking the host's SSL certificate")
	flagSet.BoolVarLong(&exchangeOptions.ForceHTTP1, "http1", 0, "force HTTP/1.1 protocol")
	flagSet.BoolVarLong(&outputOptions.Download, "download", 'd', "download the response body to a file")
	flagSet.StringVarLong(&outputOptions.OutputFile, "output", 'o', "save the downloaded body to FILE", "FILE")
	flagSet.BoolVarLong(&outputOptions.Overwrite, "overwrite", 0, "overwrite an existing file with --download")
	flagSet.StringVarLong(&limitFlags.fieldSize, "max-field-size", 0, "maximum size of a form field value in a multipart response (e.g. 1M)", "SIZE")
	flagSet.StringVarLong(&limitFlags.fileSize, "max-file-size", 0, "maximum size of a file in a multipart response (e.g. 10M)", "SIZE")
	flagSet.StringVarLong(&limitFlags.fields, "max-fields", 0, "maximum number of form fields in a multipart response", "N")
	flagSet.StringVarLong(&limitFlags.files, "max-files", 0, "maximum number of files in a multipart response", "N")
	flagSet.StringVarLong(&limitFlags.parts, "max-parts", 0, "maximum number of parts in a multipart response", "N")
	flagSet.BoolVarLong(&optionSet.Debug, "debug", 0, "print debug logs to stderr")
	flagSet.BoolVarLong(&optionSet.PrintVersion, "version", 0, "print version and exit")
	flagSet.BoolVarLong(&optionSet.PrintLicense, "license", 0, "print license information and exit")
	if err := flagSet.Getopt(args, nil); err != nil {
		return nil, flagSet, nil, errors.Wrap(err, "parsing command line")
	}

	// Check stdin
	if !ignoreStdin && !terminalInfo.stdinIsTerminal {
		inputOptions.ReadStdin = true
	}

	// Parse --print
	if err := parsePrintFlag(printFlag, terminalInfo, &outputOptions); err != nil {
		return nil, flagSet, nil, err
	}

	// Parse --timeout
	d, err := parseDurationOrSeconds(timeout)
	if err != nil {
		return nil, flagSet, nil, err
	}
	exchangeOptions.Timeout = d

	// Parse --auth
	if authFlag != "" {
		auth, err := parseAuth(authFlag)
		if err != nil {
			return nil, flagSet, nil, err
		}
		exchangeOptions.Auth = auth
	}

	// Parse --verify
	switch strings.ToLower(verifyFlag) {
	case "yes", "true":
	case "no", "false":
		exchangeOptions.SkipVerify = true
	default:
		return nil, flagSet, nil, errors.Errorf("Value of --verify must be yes or no: %s", verifyFlag)
	}

	// Parse --max-*
	limits, err := parseFormLimits(limitFlags)
	if err != nil {
		return nil, flagSet, nil, err
	}
	exchangeOptions.FormLimits = limits

	// Color and format
	outputOptions.EnableColor = terminalInfo.stdoutIsTerminal
	outputOptions.EnableFormat = terminalInfo.stdoutIsTerminal

	optionSet.InputOptions = inputOptions
	optionSet.ExchangeOptions = exchangeOptions
	optionSet.OutputOptions = outputOptions
	return flagSet.Args(), flagSet, optionSet, nil
}

func parsePrintFlag(printFlag string, terminalInfo terminalInfo, outputOptions *output.Options) error {
	if printFlag == "\000" {
		// --print is not specified
		if terminalInfo.stdoutIsTerminal {
			outputOptions.PrintResponseHeader = true
			outputOptions.PrintResponseBody = true
		} else {
			outputOptions.PrintResponseBody = true
		}
		return nil
	}
	for _, c := range printFlag {
		switch c {
		case 'H':
			outputOptions.PrintRequestHeader = true
		case 'B':
			outputOptions.PrintRequestBody = true
		case 'h':
			outputOptions.PrintResponseHeader = true
		case 'b':
			outputOptions.PrintResponseBody = true
		default:
			return errors.Errorf("Invalid char in --print value (must be consist of HBhb): %c", c)
		}
	}
	return nil
}

func parseDurationOrSeconds(timeout string) (time.Duration, error) {
	if reNumber.MatchString(timeout) {
		timeout += "s"
	}
	d, err := time.ParseDuration(timeout)
	if err != nil {
		return time.Duration(0), errors.Errorf("Value of --timeout must be a number or duration string: %v", timeout)
	}
	return d, nil
}

func parseAuth(authFlag string) (exchange.AuthOptions, error) {
	userName, password, ok := strings.Cut(authFlag, ":")
	if !ok {
		p, err := askPassword(userName)
		if err != nil {
			return exchange.AuthOptions{}, err
		}
		password = p
	}
	return exchange.AuthOptions{
		Enabled:  true,
		UserName: userName,
		Password: password,
	}, nil
}

// parseFormLimits leaves a limit at 0 (unset) when its flag is not given.
func parseFormLimits(f formLimitFlags) (formdata.Limits, error) {
	var limits formdata.Limits
	var err error
	if limits.FieldSize, err = parseSize("--max-field-size", f.fieldSize); err != nil {
		return formdata.Limits{}, err
	}
	if limits.FileSize, err = parseSize("--max-file-size", f.fileSize); err != nil {
		return formdata.Limits{}, err
	}
	if limits.Fields, err = parseCount("--max-fields", f.fields); err != nil {
		return formdata.Limits{}, err
	}
	if limits.Files, err = parseCount("--max-files", f.files); err != nil {
		return formdata.Limits{}, err
	}
	if limits.Parts, err = parseCount("--max-parts", f.parts); err != nil {
		return formdata.Limits{}, err
	}
	return limits, nil
}

// parseSize accepts a byte count ("1024") or a size with a unit ("1M").
func parseSize(flag, value string) (int64, error) {
	if value == "" {
		return 0, nil
	}
	if reInteger.MatchString(value) {
		return parseCount(flag, value)
	}
	n, err := bytefmt.ToBytes(value)
	if err != nil {
		return 0, errors.Errorf("Value of %s must be a size such as 512K or 1M: %s", flag, value)
	}
	return int64(n), nil
}

func parseCount(flag, value string) (int64, error) {
	if value == "" {
		return 0, nil
	}
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil || n <= 0 {
		return 0, errors.Errorf("Value of %s must be a positive integer: %s", flag, value)
	}
	return n, nil
}
