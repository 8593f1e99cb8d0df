package services

import (
	"agrilink-server/models"
	"agrilink-server/storage"
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
)

const expoPushEndpoint = "https://exp.host/--/api/v2/push/send"

// NotificationService handles all push notification logic
type NotificationService struct{}

// NewNotificationService creates a new notification service instance
func NewNotificationService() *NotificationService {
	return &NotificationService{}
}

// NotificationData represents the data payload for notifications
type NotificationData struct {
	Type      string `json:"type"`
	ID        string `json:"id"`
	ProductID string `json:"productId,omitempty"`
	UserID    string `json:"userId,omitempty"`
	// Deep linking data
	Screen string `json:"screen"`
	Params string `json:"params"`
}

// getUserPushTokens retrieves all push tokens for a user
func (ns *NotificationService) getUserPushTokens(userID uint) ([]string, error) {
	var user models.User
	if err := storage.DB.First(&user, userID).Error; err != nil {
		return nil, fmt.Errorf("user not found: %v", err)
	}

	if user.AllowsNotifications == nil || !*user.AllowsNotifications || user.PushTokens == nil {
		return nil, fmt.Errorf("user has notifications disabled or no tokens")
	}

	var tokens []string
	if err := json.Unmarshal(user.PushTokens, &tokens); err != nil {
		return nil, fmt.Errorf("failed to unmarshal push tokens: %v", err)
	}
	return tokens, nil
}

// SendNotificationToUser sends a notification to each of a user's devices
func (ns *NotificationService) SendNotificationToUser(userID uint, title, body string, data NotificationData) error {
	tokens, err := ns.getUserPushTokens(userID)
	if err != nil {
		log.Printf("notifications: no tokens for user %d: %v", userID, err)
		return err
	}

	var lastError error
	for _, token := range tokens {
		if err := sendPush(token, title, body, data); err != nil {
			log.Printf("notifications: failed to push to token %s: %v", token, err)
			lastError = err
		}
	}
	return lastError
}

// SendMessageNotification notifies the receiver of a new chat message.
func (ns *NotificationService) SendMessageNotification(receiverID, senderID uint, senderName, productName string) error {
	title := "New message"
	body := fmt.Sprintf("%s sent you a message about %s", senderName, productName)
	params := fmt.Sprintf(`{"senderId": %d}`, senderID)

	return ns.SendNotificationToUser(receiverID, title, body, NotificationData{
		Type:   "message",
		UserID: fmt.Sprintf("%d", senderID),
		Screen: "Chat",
		Params: params,
	})
}

// SendVerificationOutcome notifies a user their verification was reviewed.
func (ns *NotificationService) SendVerificationOutcome(userID uint, approved bool) error {
	title := "Verification update"
	body := "Your AgriLink verification was approved."
	if !approved {
		body = "Your AgriLink verification was rejected. Open the app to review the notes."
	}

	return ns.SendNotificationToUser(userID, title, body, NotificationData{
		Type:   "verification",
		UserID: fmt.Sprintf("%d", userID),
		Screen: "Verification",
		Params: "{}",
	})
}

// SendProductStatusNotification notifies a seller their listing changed status.
func (ns *NotificationService) SendProductStatusNotification(productID, sellerID uint, productName, status string) error {
	title := "Listing update"
	body := fmt.Sprintf("Your listing %q is now %s", productName, status)
	params := fmt.Sprintf(`{"productId": %d}`, productID)

	return ns.SendNotificationToUser(sellerID, title, body, NotificationData{
		Type:      "product_status",
		ProductID: fmt.Sprintf("%d", productID),
		Screen:    "MyListings",
		Params:    params,
	})
}

// sendPush delivers a single message to the Expo push endpoint.
func sendPush(token, title, body string, data NotificationData) error {
	message := map[string]interface{}{
		"to":    token,
		"title": title,
		"body":  body,
		"sound": "default",
		"data":  data,
	}

	payload, err := json.Marshal(message)
	if err != nil {
		return err
	}

	req, err := http.NewRequest("POST", expoPushEndpoint, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode >= 300 {
		return fmt.Errorf("push endpoint returned status %d", res.StatusCode)
	}
	return nil
}
