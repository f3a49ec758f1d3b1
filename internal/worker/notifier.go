package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"

	"github.com/voltcart/storefront-api/internal/config"
	"github.com/voltcart/storefront-api/internal/model"
	"github.com/voltcart/storefront-api/internal/repository"
)

const (
	orderQueueName = "orders"
	dlxExchange    = "orders.dlx"
	dlqQueueName   = "orders.dlq"
	idempotencyTTL = 24 * time.Hour
)

// Notifier consumes order-placed events and emails the customer a receipt.
type Notifier struct {
	channel     *amqp.Channel
	orderRepo   repository.OrderRepository
	userRepo    repository.UserRepository
	redisClient *redis.Client
	smtpCfg     config.SMTPConfig
	log         *slog.Logger
	done        chan struct{}
}

func NewNotifier(
	ch *amqp.Channel,
	orderRepo repository.OrderRepository,
	userRepo repository.UserRepository,
	redisClient *redis.Client,
	smtpCfg config.SMTPConfig,
	log *slog.Logger,
) *Notifier {
	return &Notifier{
		channel:     ch,
		orderRepo:   orderRepo,
		userRepo:    userRepo,
		redisClient: redisClient,
		smtpCfg:     smtpCfg,
		log:         log,
		done:        make(chan struct{}),
	}
}

// SetupRabbitMQ declares exchanges, queues, and bindings (DLX/DLQ).
func SetupRabbitMQ(ch *amqp.Channel) error {
	if err := ch.ExchangeDeclare(dlxExchange, "direct", true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare DLX: %w", err)
	}
	if _, err := ch.QueueDeclare(dlqQueueName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare DLQ: %w", err)
	}
	if err := ch.QueueBind(dlqQueueName, orderQueueName, dlxExchange, false, nil); err != nil {
		return fmt.Errorf("bind DLQ: %w", err)
	}
	if _, err := ch.QueueDeclare(orderQueueName, true, false, false, false, amqp.Table{
		"x-dead-letter-exchange":    dlxExchange,
		"x-dead-letter-routing-key": orderQueueName,
	}); err != nil {
		return fmt.Errorf("declare order queue: %w", err)
	}
	if err := ch.Qos(1, 0, false); err != nil {
		return fmt.Errorf("set QoS: %w", err)
	}
	return nil
}

func (n *Notifier) Start(ctx context.Context) error {
	msgs, err := n.channel.Consume(orderQueueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}

	go func() {
		for {
			select {
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				n.processMessage(ctx, msg)
			case <-n.done:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	n.log.Info("order notifier started")
	return nil
}

func (n *Notifier) Stop() { close(n.done) }

func (n *Notifier) processMessage(ctx context.Context, msg amqp.Delivery) {
	var event model.OrderPlacedEvent
	if err := json.Unmarshal(msg.Body, &event); err != nil {
		n.log.Error("unmarshal order event", "error", err)
		_ = msg.Nack(false, false)
		return
	}

	log := n.log.With("order_id", event.OrderID, "user_id", event.UserID)

	// Redis dedupe so a redelivered event does not mail twice.
	key := fmt.Sprintf("order_notified:%d", event.OrderID)
	if n.redisClient != nil {
		exists, err := n.redisClient.Exists(ctx, key).Result()
		if err != nil {
			log.Error("check idempotency key", "error", err)
			_ = msg.Nack(false, true)
			return
		}
		if exists > 0 {
			log.Info("order already notified, skipping")
			_ = msg.Ack(false)
			return
		}
	}

	if err := n.notify(ctx, event.OrderID, event.UserID); err != nil {
		log.Error("notify order", "error", err)
		_ = msg.Nack(false, false) // -> DLQ
		return
	}

	// Mark notified only once the receipt went out; a failed event must stay
	// eligible for redelivery.
	if n.redisClient != nil {
		if err := n.redisClient.Set(ctx, key, "1", idempotencyTTL).Err(); err != nil {
			log.Error("set idempotency key", "error", err)
		}
	}

	_ = msg.Ack(false)
	log.Info("order receipt sent")
}

func (n *Notifier) notify(ctx context.Context, orderID, userID int64) error {
	order, err := n.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return fmt.Errorf("get order: %w", err)
	}
	if order == nil {
		return fmt.Errorf("order not found: %d", orderID)
	}

	user, err := n.userRepo.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("get user: %w", err)
	}
	if user == nil {
		return fmt.Errorf("user not found: %d", userID)
	}

	if n.smtpCfg.Host == "" {
		n.log.Info("smtp not configured, logging receipt instead",
			"order_id", order.ID, "email", user.Email, "total", order.TotalAmount)
		return nil
	}
	return n.sendReceipt(order, user)
}

func (n *Notifier) sendReceipt(order *model.Order, user *model.User) error {
	var body strings.Builder
	fmt.Fprintf(&body, "To: %s\r\n", user.Email)
	fmt.Fprintf(&body, "Subject: Order #%d confirmation\r\n\r\n", order.ID)
	fmt.Fprintf(&body, "Hi %s,\r\n\r\nThanks for your order!\r\n\r\n", user.Name)
	for _, item := range order.Items {
		fmt.Fprintf(&body, "  %dx %s @ %s\r\n", item.Quantity, item.Name, item.Price)
	}
	fmt.Fprintf(&body, "\r\nTotal: %s\r\nDelivery address: %s\r\n",
		order.TotalAmount, order.DeliveryAddress)

	var auth smtp.Auth
	if n.smtpCfg.Username != "" {
		auth = smtp.PlainAuth("", n.smtpCfg.Username, n.smtpCfg.Password, n.smtpCfg.Host)
	}
	if err := smtp.SendMail(n.smtpCfg.Addr(), auth, n.smtpCfg.From, []string{user.Email}, []byte(body.String())); err != nil {
		return fmt.Errorf("send receipt: %w", err)
	}
	return nil
}
