package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"paintbot/internal/handler"
	"paintbot/internal/inject"
	"paintbot/internal/log"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/joho/godotenv"
	"github.com/samber/do"
)

func main() {
	if os.Getenv("AWS_LAMBDA_RUNTIME_API") != "" {
		ctx := log.NewContext(context.Background(), log.New(os.Stderr))
		injector := inject.Setup(ctx)
		handler := do.MustInvoke[*handler.Handler](injector)
		lambda.StartWithOptions(handler.Handle, lambda.WithContext(ctx), lambda.WithEnableSIGTERM(func() {
			_ = injector.Shutdown()
		}))
		return
	}
	runLocal()
}

func runLocal() {
	_ = godotenv.Load()

	prompt := flag.String("prompt", "", "prompt to paint; picked from $PROMPTS when empty")
	ratio := flag.String("ratio", "", `aspect ratio, e.g. "3:4"`)
	backend := flag.String("backend", "", "generation backend: modelscope or replicate")
	flag.Parse()

	if *backend != "" {
		os.Setenv("BACKEND", *backend)
	}

	ctx := log.NewContext(context.Background(), log.New(os.Stderr))
	injector := inject.SetupLocal(ctx)
	defer func() { _ = injector.Shutdown() }()

	h := do.MustInvoke[*handler.Handler](injector)
	out, err := h.Handle(ctx, handler.Input{Prompt: *prompt, Ratio: *ratio})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Printf("%s painted %q for %s\n", out.Backend, out.Prompt, out.Date)
}
