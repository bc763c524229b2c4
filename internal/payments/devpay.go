package payments

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	pubnub "github.com/pubnub/go/v7"
	"github.com/redis/go-redis/v9"

	"tickethub/config"
	"tickethub/utils"
)

// DevPay is the development payment provider. Intents live in Redis and
// outcome events arrive over a PubNub channel, the same notification shape a
// hosted provider would deliver through a webhook or push subscription.
type DevPay struct {
	redis   *redis.Client
	channel string
	hmacKey []byte
	ttl     time.Duration

	pn  *pubnub.PubNub
	lis *pubnub.Listener
	ch  chan *Event
}

type devPayNotification struct {
	PaymentRef  string `json:"payment_ref"`
	Status      string `json:"status"`
	Signature   string `json:"signature"`
	ConfirmCode string `json:"confirm_code"`
}

func NewDevPay(ctx context.Context, cfg *config.Config, redisClient *redis.Client) (*DevPay, error) {
	d := &DevPay{
		redis:   redisClient,
		channel: cfg.PaymentEventsChannel,
		hmacKey: []byte(cfg.PaymentWebhookHMACKey),
		ttl:     cfg.PaymentIntentTTL,
		lis:     pubnub.NewListener(),
	}

	pnCfg := pubnub.NewConfigWithUserId(pubnub.UserId(cfg.PaymentSubscribeUUID))
	pnCfg.SubscribeKey = cfg.PaymentSubscribeKey
	pnCfg.SecretKey = cfg.PaymentSubscribeSecret

	d.pn = pubnub.NewPubNub(pnCfg)
	d.pn.AddListener(d.lis)
	d.pn.Subscribe().Channels([]string{d.channel}).Execute()

	go d.processSubscription(ctx)

	return d, nil
}

func (d *DevPay) Name() string {
	return "devpay"
}

func (d *DevPay) CreateIntent(ctx context.Context, amountMinor int64) (*Intent, error) {
	if amountMinor <= 0 {
		return nil, fmt.Errorf("devpay: non-positive amount %d", amountMinor)
	}

	code, err := utils.GenerateCode(8)
	if err != nil {
		return nil, err
	}
	secretCode, err := utils.GenerateCode(16)
	if err != nil {
		return nil, err
	}

	intent := &Intent{
		ID:           fmt.Sprintf("pi_%s", code),
		ClientSecret: fmt.Sprintf("ps_%s", secretCode),
		AmountMinor:  amountMinor,
	}

	secretHash, err := HashSecret(intent.ClientSecret)
	if err != nil {
		return nil, err
	}

	// Per-intent confirmation code; notifications without an HMAC signature
	// must echo it back.
	confirmCode, err := utils.GenerateOTP(6)
	if err != nil {
		return nil, err
	}

	intentKey := fmt.Sprintf("intent:%s", intent.ID)
	if err := d.redis.HSet(ctx, intentKey, map[string]any{
		"amount_minor": amountMinor,
		"status":       "pending",
		"secret_hash":  secretHash,
		"confirm_code": confirmCode,
		"created_at":   time.Now().Unix(),
	}).Err(); err != nil {
		return nil, fmt.Errorf("devpay: store intent: %w", err)
	}
	d.redis.Expire(ctx, intentKey, d.ttl)

	return intent, nil
}

// VerifyClientSecret checks possession of an intent's client secret. The dev
// simulation endpoint requires it before it will publish an outcome.
func (d *DevPay) VerifyClientSecret(ctx context.Context, paymentRef, secret string) bool {
	hash, err := d.redis.HGet(ctx, fmt.Sprintf("intent:%s", paymentRef), "secret_hash").Result()
	if err != nil {
		return false
	}
	return CheckSecret(hash, secret)
}

// verifyConfirmationCode compares a notification's confirmation code against
// the one minted with the intent. An expired or unknown intent fails the
// check; so does an empty code.
func (d *DevPay) verifyConfirmationCode(ctx context.Context, paymentRef, code string) bool {
	if code == "" {
		return false
	}
	stored, err := d.redis.HGet(ctx, fmt.Sprintf("intent:%s", paymentRef), "confirm_code").Result()
	if err != nil {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(code)) == 1
}

func (d *DevPay) SetEventChannel(ch chan *Event) {
	d.ch = ch
}

func (d *DevPay) Close(ctx context.Context) error {
	d.pn.Unsubscribe().Channels([]string{d.channel}).Execute()
	return nil
}

func (d *DevPay) processSubscription(ctx context.Context) {
	for {
		select {
		case st := <-d.lis.Status:
			switch st.Category {
			case pubnub.PNConnectedCategory:
				slog.Info("devpay connected to payment events channel", "channel", d.channel)
			case pubnub.PNDisconnectedCategory:
				slog.Warn("devpay disconnected from payment events channel", "channel", d.channel)
			}

		case message := <-d.lis.Message:
			n, err := decodeNotification(message.Message)
			if err != nil {
				slog.Error("devpay: bad payment notification", "error", err)
				continue
			}

			if len(d.hmacKey) > 0 {
				if !VerifySignature([]byte(n.PaymentRef), n.Signature, d.hmacKey) {
					slog.Warn("devpay: rejected unsigned payment notification", "payment_ref", n.PaymentRef)
					continue
				}
			} else if !d.verifyConfirmationCode(ctx, n.PaymentRef, n.ConfirmCode) {
				slog.Warn("devpay: rejected payment notification with bad confirmation code", "payment_ref", n.PaymentRef)
				continue
			}

			ev, err := n.toEvent()
			if err != nil {
				slog.Error("devpay: unknown payment status", "status", n.Status)
				continue
			}

			if d.ch != nil {
				d.ch <- ev
			}

		case <-ctx.Done():
			slog.Info("devpay subscription closed")
			return
		}
	}
}

func decodeNotification(raw any) (*devPayNotification, error) {
	var n devPayNotification

	switch msg := raw.(type) {
	case string:
		if err := json.Unmarshal([]byte(msg), &n); err != nil {
			return nil, err
		}
	case map[string]any:
		data, err := json.Marshal(msg)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(data, &n); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unexpected message type %T", raw)
	}

	if n.PaymentRef == "" {
		return nil, fmt.Errorf("missing payment_ref")
	}
	return &n, nil
}

func (n *devPayNotification) toEvent() (*Event, error) {
	var kind EventKind
	switch n.Status {
	case "succeeded", "success":
		kind = EventSucceeded
	case "failed":
		kind = EventFailed
	case "refunded":
		kind = EventRefunded
	default:
		return nil, fmt.Errorf("status %q", n.Status)
	}

	return &Event{PaymentRef: n.PaymentRef, Kind: kind, At: time.Now()}, nil
}
