package services

import (
	"agrilink-server/storage"
	"bytes"
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"
)

const (
	otpTTL         = 5 * time.Minute
	otpResendGuard = 60 * time.Second
)

var (
	ErrOTPThrottled = errors.New("otp recently sent, wait before retrying")
	ErrOTPExpired   = errors.New("otp expired or never sent")
	ErrOTPMismatch  = errors.New("otp code does not match")
)

// OTPSender dispatches a one-time code to a phone number. The production
// implementation posts to the SMS gateway; tests swap in a stub.
type OTPSender interface {
	Send(phoneNumber, code string) error
}

// OTPDispatch is the active sender. Replaced in tests.
var OTPDispatch OTPSender = &smsGateway{}

// smsGateway posts to the HTTP SMS provider configured via SMS_GATEWAY_URL /
// SMS_GATEWAY_KEY. With no URL configured (local dev) it logs the code
// instead of sending.
type smsGateway struct{}

func (g *smsGateway) Send(phoneNumber, code string) error {
	gatewayURL := os.Getenv("SMS_GATEWAY_URL")
	if gatewayURL == "" {
		log.Printf("sms: SMS_GATEWAY_URL not set, OTP for %s is %s (development mode)", phoneNumber, code)
		return nil
	}

	payload, err := json.Marshal(map[string]string{
		"to":      "+" + phoneNumber,
		"message": fmt.Sprintf("Your AgriLink verification code is %s. It expires in 5 minutes.", code),
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequest("POST", gatewayURL, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+os.Getenv("SMS_GATEWAY_KEY"))

	res, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode >= 300 {
		return fmt.Errorf("sms gateway returned status %d", res.StatusCode)
	}
	return nil
}

// SendPhoneOTP generates a 6-digit code for the phone number, stores its hash
// in Redis with a 5 minute TTL and dispatches it. A 60 second resend guard
// protects the gateway from repeat taps.
func SendPhoneOTP(ctx context.Context, phoneNumber string) error {
	guardKey := "otp:guard:" + phoneNumber
	set, err := storage.Redis.SetNX(ctx, guardKey, "1", otpResendGuard).Result()
	if err != nil {
		return err
	}
	if !set {
		return ErrOTPThrottled
	}

	code, err := generateOTPCode()
	if err != nil {
		return err
	}

	if err := storage.Redis.Set(ctx, otpKey(phoneNumber), hashOTPCode(code), otpTTL).Err(); err != nil {
		return err
	}

	if err := OTPDispatch.Send(phoneNumber, code); err != nil {
		// Code stays in Redis; the user may retry dispatch after the guard
		// expires without invalidating an SMS already in flight.
		return err
	}
	return nil
}

// CheckPhoneOTP verifies a user-entered code. A correct code is consumed so
// it cannot be replayed.
func CheckPhoneOTP(ctx context.Context, phoneNumber, code string) error {
	stored, err := storage.Redis.Get(ctx, otpKey(phoneNumber)).Result()
	if err != nil {
		return ErrOTPExpired
	}
	if stored != hashOTPCode(code) {
		return ErrOTPMismatch
	}
	storage.Redis.Del(ctx, otpKey(phoneNumber), "otp:guard:"+phoneNumber)
	return nil
}

func otpKey(phoneNumber string) string {
	return "otp:code:" + phoneNumber
}

func hashOTPCode(code string) string {
	sum := sha256.Sum256([]byte(code))
	return fmt.Sprintf("%x", sum)
}

func generateOTPCode() (string, error) {
	b := make([]byte, 4)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	n := uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
	return fmt.Sprintf("%06d", n%1000000), nil
}
