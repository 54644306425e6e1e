package main

import (
	"context"
	"flag"

	"github.com/aws/aws-lambda-go/lambda"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/log/zap"

	"github.com/yuriy-kovalchuk/yk-dyndns/internal/app"
	"github.com/yuriy-kovalchuk/yk-dyndns/internal/config"
	"github.com/yuriy-kovalchuk/yk-dyndns/internal/server"
)

var Version = "dev"

func main() {
	opts := zap.Options{}
	opts.BindFlags(flag.CommandLine)
	flag.Parse()

	ctrl.SetLogger(zap.New(zap.UseFlagOptions(&opts)))
	log := ctrl.Log.WithName("setup")

	log.Info("starting yk-dyndns lambda", "version", Version)

	// A configuration failure is reported per invocation so the function
	// does not crash-loop on cold start.
	cfg, err := config.LoadLambda()
	if err != nil {
		log.Error(err, "unable to load config")
		lambda.Start(server.ConfigErrorHandler)
		return
	}

	svc, err := app.NewService(context.Background(), cfg, ctrl.Log)
	if err != nil {
		log.Error(err, "unable to build update service")
		lambda.Start(server.ConfigErrorHandler)
		return
	}

	srv := &server.Server{Updater: svc, Log: ctrl.Log.WithName("lambda")}
	lambda.Start(srv.HandleAPIGateway)
}
