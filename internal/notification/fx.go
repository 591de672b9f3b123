package notification

import (
	"context"
	"fmt"

	"github.com/smallbiznis/rendezvous/internal/config"
	"github.com/smallbiznis/rendezvous/internal/providers/email"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("notification",
	fx.Provide(NewFromConfig),
)

type Params struct {
	fx.In

	Lifecycle fx.Lifecycle
	Config    config.Config
	Log       *zap.Logger
	Email     email.Provider `optional:"true"`
}

func NewFromConfig(p Params) (Dispatcher, error) {
	log := p.Log.Named("notification")

	var fanout Fanout
	for _, channel := range p.Config.Notification.Channels {
		switch channel {
		case "amqp":
			d, err := NewAMQPDispatcher(p.Config.AMQP.URL, p.Config.AMQP.Exchange)
			if err != nil {
				return nil, err
			}
			p.Lifecycle.Append(fx.Hook{
				OnStop: func(context.Context) error { return d.Close() },
			})
			fanout = append(fanout, d)
		case "email":
			if p.Email == nil {
				return nil, fmt.Errorf("notification: email channel enabled without an email provider")
			}
			fanout = append(fanout, NewEmailDispatcher(p.Email, p.Config.Email.OpsRecipients))
		default:
			return nil, fmt.Errorf("notification: unknown channel %q", channel)
		}
		log.Info("notification channel enabled", zap.String("channel", channel))
	}

	if len(fanout) == 0 {
		return NoOp{}, nil
	}
	return fanout, nil
}
