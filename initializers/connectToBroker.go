package initializers

import (
	radix "github.com/mediocregopher/radix/v3"
	"github.com/pkg/errors"
	amqp "github.com/rabbitmq/amqp091-go"
	log "github.com/sirupsen/logrus"
)

func ConnectToBroker(url string) (*amqp.Connection, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect rabbitmq")
	}
	log.Info("Connected to rabbitmq.")
	return conn, nil
}

func ConnectToRedis(addr string) (radix.Client, error) {
	pool, err := radix.NewPool("tcp", addr, 10)
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect redis")
	}
	log.Info("Connected to redis.")
	return pool, nil
}
