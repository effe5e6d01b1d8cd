package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/iwvelando/auto-quote/internal/config"
	"github.com/iwvelando/auto-quote/internal/logging"
	"github.com/iwvelando/auto-quote/internal/optimizer"
	"github.com/iwvelando/auto-quote/pkg/constants"
	"github.com/iwvelando/auto-quote/pkg/datetime"
	"github.com/iwvelando/auto-quote/pkg/output"
	"github.com/iwvelando/auto-quote/pkg/quote"
	"github.com/iwvelando/auto-quote/pkg/validation"
	"go.uber.org/zap"
)

func loadRequest(location string) (*config.Request, error) {
	if location == "-" {
		return config.LoadRequestFromReader(os.Stdin, "yaml")
	}
	return config.LoadRequest(location)
}

func main() {
	configLocation := flag.String("config", constants.DefaultConfigFile, "path to the quote request file, or - for stdin")
	outputFormatFlag := flag.String("output-format", "", "type of output override: pretty, csv")
	logLevel := flag.String("log-level", "", "log level override (debug, info, warn, error)")
	asOf := flag.String("as-of", "", "quote date override (YYYY-MM-DD)")
	targetPayment := flag.Float64("target-payment", 0, "solve for the smallest down payment whose monthly payment fits this budget")
	flag.Parse()

	req, err := loadRequest(*configLocation)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to load quote request at %s\", \"error\": \"%v\"}\n", *configLocation, err)
		os.Exit(1)
	}

	logger, err := logging.New(req.Logging, *logLevel)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to initialize logger\", \"error\": \"%v\"}\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()

	outputFormat := req.Output.Format
	if *outputFormatFlag != "" {
		outputFormat = *outputFormatFlag
	}
	if outputFormat == "" {
		outputFormat = constants.OutputFormatPretty
	}
	if err := validation.ValidateOutputFormat(outputFormat); err != nil {
		logger.Fatal(err.Error(),
			zap.String("op", "main"),
		)
	}

	if *asOf != "" {
		req.AsOf = *asOf
	}
	req.DefaultAsOf(datetime.Today())

	in, settings, err := req.Prepare()
	if err != nil {
		logger.Fatal("quote request is invalid",
			zap.String("op", "main"),
			zap.String("config", *configLocation),
			zap.Error(err),
		)
	}

	if *targetPayment != 0 {
		solved, summary, err := optimizer.NewRunner(logger).MinimumDownPayment(in, settings, *targetPayment)
		if err != nil {
			logger.Fatal("failed to solve for down payment",
				zap.String("op", "main"),
				zap.Error(err),
			)
		}
		for _, note := range summary.Notes {
			logger.Warn("Optimizer note: "+note,
				zap.String("op", "main"),
			)
		}
		logger.Info("down payment solved",
			zap.String("op", "main"),
			zap.String("down_payment", summary.ValueDisplay),
			zap.String("payment", summary.PaymentDisplay),
			zap.Bool("converged", summary.Converged),
		)
		in = solved
	}

	warnings := quote.Warnings(in, settings)
	for _, warning := range warnings {
		logger.Warn("Quote warning: "+warning,
			zap.String("op", "main"),
		)
	}

	result := quote.Compute(in, settings)
	if problems := quote.CheckInvariants(result); len(problems) > 0 {
		logger.Warn("quote schedule failed consistency checks",
			zap.String("op", "main"),
			zap.Strings("problems", problems),
		)
	}
	logger.Debug("quote computed",
		zap.String("op", "main"),
		zap.String("as_of", in.AsOf.String()),
		zap.Int("rows", len(result.Schedule)),
	)

	switch outputFormat {
	case constants.OutputFormatPretty:
		err = output.PrettyFormat(os.Stdout, result, warnings)
	case constants.OutputFormatCSV:
		err = output.CsvFormat(os.Stdout, result)
	}
	if err != nil {
		logger.Fatal("failed to write quote",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}
}
