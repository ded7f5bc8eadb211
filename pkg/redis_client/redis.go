package redis_client

import (
	"context"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/stoopview/stoopview/pkg/util"
)

// Client is nil until Connect succeeds. Redis is optional here; callers that
// cache through it fall back to direct fetches when it is nil.
var Client *redis.Client

const defaultConnectionAddress = "localhost:6379"
const defaultDatabase = 0

func Connect() error {
	address := defaultConnectionAddress
	password := ""
	database := defaultDatabase

	env := util.GetEnvironmentVariables()

	if env["STOOPVIEW_REDIS_ADDRESS"] != "" {
		address = env["STOOPVIEW_REDIS_ADDRESS"]
	}

	if env["STOOPVIEW_REDIS_PASSWORD"] != "" {
		password = env["STOOPVIEW_REDIS_PASSWORD"]
	}

	if env["STOOPVIEW_REDIS_DATABASE"] != "" {
		if n, err := strconv.Atoi(env["STOOPVIEW_REDIS_DATABASE"]); err == nil {
			database = n
		} else {
			return err
		}
	}

	Client = redis.NewClient(&redis.Options{
		Addr:     address,
		Password: password,
		DB:       database,
	})

	statusCmd := Client.Ping(context.Background())
	if err := statusCmd.Err(); err != nil {
		Client = nil
		return err
	}

	return nil
}
