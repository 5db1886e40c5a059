package main

import (
	"context"
	"log"
	"runtime/debug"

	"github.com/aws/aws-lambda-go/lambda"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-xray-sdk-go/instrumentation/awsv2"
	"github.com/aws/aws-xray-sdk-go/xray"

	"github.com/qmb/roombooking/internal/config"
	"github.com/qmb/roombooking/internal/handler"
	"github.com/qmb/roombooking/internal/mailer"
	"github.com/qmb/roombooking/internal/repository"
	"github.com/qmb/roombooking/internal/service"
	"github.com/qmb/roombooking/internal/token"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v\nStack trace:\n%s", err, debug.Stack())
	}

	if cfg.EnableTracing {
		if err := xray.Configure(xray.Config{ServiceVersion: "1.0.0"}); err != nil {
			log.Printf("Failed to configure X-Ray: %v", err)
		}
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background())
	if err != nil {
		log.Fatalf("Failed to load AWS config: %v\nStack trace:\n%s", err, debug.Stack())
	}
	if cfg.EnableTracing {
		awsv2.AWSV2Instrumentor(&awsCfg.APIOptions)
	}

	repo := repository.NewBookingRepository(dynamodb.NewFromConfig(awsCfg), cfg)
	m := mailer.NewSESMailer(sesv2.NewFromConfig(awsCfg), cfg)
	svc := service.NewBookingService(repo, m, token.NewUUIDIssuer(), cfg)

	lambda.Start(handler.New(svc, cfg).HandleRequest)
}
