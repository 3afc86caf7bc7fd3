package httpbody

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"

	"github.com/nojima/httpbody/exchange"
	"github.com/nojima/httpbody/flags"
	"github.com/nojima/httpbody/input"
	"github.com/nojima/httpbody/output"
	"github.com/nojima/httpbody/version"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

type Options struct {
	// Transport is used for the HTTP exchange when set. It is meant for
	// embedding the command in another program.
	Transport http.RoundTripper
}

func Main(options *Options) error {
	// Parse flags
	args, usage, optionSet, err := flags.Parse(os.Args)
	if err != nil {
		if usage != nil {
			usage.PrintUsage(os.Stderr)
		}
		return err
	}
	inputOptions := optionSet.InputOptions
	exchangeOptions := optionSet.ExchangeOptions
	exchangeOptions.Transport = options.Transport
	outputOptions := optionSet.OutputOptions

	// Show version and/or license if requested
	if optionSet.PrintVersion {
		fmt.Fprintf(os.Stderr, "ht %s\n", version.Current())
		return nil
	}
	if optionSet.PrintLicense {
		version.PrintLicenses(os.Stderr)
		return nil
	}

	logger := zap.NewNop()
	if optionSet.Debug {
		logger, err = zap.NewDevelopment()
		if err != nil {
			return errors.Wrap(err, "creating logger")
		}
		defer logger.Sync()
	}
	exchangeOptions.Logger = logger

	// Parse positional arguments
	in, err := input.ParseArgs(args, os.Stdin, &inputOptions)
	if _, ok := errors.Cause(err).(*input.UsageError); ok {
		usage.PrintUsage(os.Stderr)
		return err
	}
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	// Send request and receive response
	return Exchange(ctx, in, &exchangeOptions, &outputOptions, os.Stdout, logger)
}

// Exchange sends the request described by in and prints what outputOptions
// asks for to w.
func Exchange(ctx context.Context, in *input.Input, exchangeOptions *exchange.Options, outputOptions *output.Options, w io.Writer, logger *zap.Logger) error {
	writer := bufio.NewWriter(w)
	defer writer.Flush()

	var printer output.Printer
	if outputOptions.EnableFormat {
		printer = output.NewPrettyPrinter(output.PrettyPrinterConfig{
			Writer:      writer,
			EnableColor: outputOptions.EnableColor,
		})
	} else {
		printer = output.NewPlainPrinter(writer)
	}

	requestBody, err := exchange.BuildHTTPBody(in, exchangeOptions)
	if err != nil {
		return err
	}
	// Printing leaves the stream of a built body to the request. Raw stdin
	// has no copy to print from.
	if outputOptions.PrintRequestBody && in.Body.BodyType != input.RawBody {
		if err := printer.PrintBody(ctx, requestBody); err != nil {
			return err
		}
		fmt.Fprintf(writer, "\n\n")
	}

	request, response, err := exchange.SendWithBody(ctx, in, requestBody, exchangeOptions)
	if err != nil {
		return err
	}
	defer response.Close()

	if outputOptions.PrintRequestHeader {
		if err := printer.PrintRequestLine(request); err != nil {
			return err
		}
		if err := printer.PrintHeader(request.Header); err != nil {
			return err
		}
	}

	if outputOptions.PrintResponseHeader {
		if err := printer.PrintStatusLine(response.Proto, response.Status, response.StatusCode); err != nil {
			return err
		}
		if err := printer.PrintHeader(response.Header); err != nil {
			return err
		}
	}
	writer.Flush()

	if outputOptions.Download {
		file := output.NewFileWriter(request.URL, response.Header.Get("Content-Disposition"), outputOptions)
		logger.Debug("downloading response body", zap.String("file", file.Filename()))
		return file.Download(ctx, response.Body, response.ContentLength, os.Stderr)
	}
	if outputOptions.PrintResponseBody {
		if err := printer.PrintBody(ctx, response.Body); err != nil {
			return err
		}
	}
	return nil
}
