package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/pflag"
	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"

	"github.com/niksmo/storefront/config"
	"github.com/niksmo/storefront/internal/adapter"
	"github.com/niksmo/storefront/pkg/sigctx"
)

const cleanupDelete = "delete"

func main() {
	sigCtx, closeApp := sigctx.NotifyContext()
	defer closeApp()

	cfg := loadConfig()

	cl, err := createClient(cfg)
	if err != nil {
		printFail(err)
		os.Exit(2)
	}
	defer cl.Close()

	printStart(cfg)
	defer printComplete(time.Now())

	err = makeTopics(
		sigCtx, cl,
		cfg.Broker.Partitions, cfg.Broker.ReplicationFactor,
		cleanupDelete,
		cfg.Broker.Topics.Activity,
	)
	if err != nil {
		printFail(err)
		return
	}
}

func loadConfig() config.Config {
	path := pflag.String("config", "", "config file")
	pflag.Parse()

	cfg, err := config.Read(*path, os.LookupEnv)
	if err != nil {
		printFail(err)
		os.Exit(2)
	}
	return cfg
}

func createClient(cfg config.Config) (*kadm.Client, error) {
	opts := []kgo.Opt{kgo.SeedBrokers(cfg.Broker.SeedBrokers...)}

	tls := cfg.Broker.TLS
	tlsConfig, err := adapter.MakeTLSConfig(tls.CA, tls.Cert, tls.Key)
	if err != nil {
		return nil, err
	}
	if tlsConfig != nil {
		opts = append(opts, kgo.DialTLSConfig(tlsConfig))
	}

	return kadm.NewOptClient(opts...)
}

func makeTopics(
	ctx context.Context,
	cl *kadm.Client,
	partitions int32,
	replicationFactor int16,
	cleanupPolicy string,
	topics ...string,
) error {
	var (
		minISR = "1"
	)

	topicConfig := map[string]*string{
		"cleanup.policy":      &cleanupPolicy,
		"min.insync.replicas": &minISR,
	}

	responses, err := cl.CreateTopics(
		ctx,
		partitions,
		replicationFactor,
		topicConfig,
		topics...,
	)

	if err != nil {
		return err
	}

	var errs []error
	for _, res := range responses.Sorted() {
		err := res.Err
		if err != nil {
			if errors.Is(res.Err, kerr.TopicAlreadyExists) {
				fmt.Printf("topic: %q already exists\n", res.Topic)
			} else {
				errs = append(errs, err)
			}
			continue
		}
		fmt.Printf("topic: %q successfully created\n", res.Topic)
	}

	return errors.Join(errs...)
}

func printStart(cfg config.Config) {
	fmt.Printf(`initializing topics...
	- %q (partitions=%d, replication=%d)

`,
		cfg.Broker.Topics.Activity,
		cfg.Broker.Partitions,
		cfg.Broker.ReplicationFactor,
	)
}

func printComplete(start time.Time) {
	fmt.Printf("\ncomplete in %s\n", time.Since(start))
}

func printFail(err error) {
	fmt.Printf("failed to create topics: \n%s\n", err)
}
