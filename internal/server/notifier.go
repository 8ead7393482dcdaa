package server

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"librolink/internal/client"
	"librolink/internal/misc"
	"librolink/internal/model"
)

func (s Server) CheckAlertsInInterval(ctx context.Context, ticker *time.Ticker) {
	for range ticker.C {
		s.checkAlerts(ctx)
	}
}

// checkAlerts walks every armed wishlist price alert and pushes a
// notification when the listed price has reached the target. An alert fires
// once and stays quiet until the user changes its target again.
func (s Server) checkAlerts(ctx context.Context) {
	s.Logger.Info("checkAlerts: Starting to check wishlist price alerts")
	wes, err := s.DB.WishlistFindAlertable(ctx)
	if err != nil {
		s.Logger.Errorf("checkAlerts: Error getting alertable WishlistEntries from DB, err: %v", err)
		return
	}
	s.Logger.Infof("checkAlerts: Retrieved %d alertable WishlistEntry(s) from DB", len(wes))

	bookIDs := make([]primitive.ObjectID, 0, len(wes))
	for _, we := range wes {
		bookIDs = append(bookIDs, we.Book)
	}
	bs, err := s.DB.BooksFindByIDs(ctx, bookIDs)
	if err != nil {
		s.Logger.Errorf("checkAlerts: Error getting Books from DB, err: %v", err)
		return
	}
	booksByID := make(map[primitive.ObjectID]model.Book, len(bs))
	for _, b := range bs {
		booksByID[b.ID] = b
	}

	for _, we := range wes {
		b, ok := booksByID[we.Book]
		if !ok || b.Status != model.StatusAvailable || b.Price > we.PriceAlert.TargetPrice {
			continue
		}
		bookTitle := misc.StringLimit(b.Title, 45)

		u, err := s.DB.UserFindByID(ctx, we.User.Hex())
		if err != nil {
			s.Logger.Errorf("checkAlerts: Error getting User with ID: %s, err: %v", we.User.Hex(), err)
			continue
		}
		if !u.Preferences.PriceAlerts || u.FCMToken == "" {
			s.Logger.Debugf("checkAlerts: User: %s has no alert delivery for Book: %s, ID: %s",
				u.ID.Hex(), bookTitle, b.ID.Hex())
			continue
		}

		fcmReq := client.FCMSendRequest{
			Notification: client.FCMNotification{
				Title: "A book on your wishlist hit your target price!",
				Body:  fmt.Sprintf("%s is now $%.2f", bookTitle, b.Price),
				Sound: "default",
			},
			Data:            client.FCMData{BookID: b.ID.Hex()},
			RegistrationIDs: []string{u.FCMToken},
		}
		s.Logger.Infof("checkAlerts: Sending notification to User: %s for Book: %s, ID: %s",
			u.ID.Hex(), bookTitle, b.ID.Hex())
		fcmResp, err := s.Client.FCMSendNotification(fcmReq)
		if err != nil {
			s.Logger.Errorf("checkAlerts: Error sending notification to FCM for Book: %s, ID: %s, err: %v",
				bookTitle, b.ID.Hex(), err)
			continue
		}
		s.Logger.Infof("checkAlerts: Send notification results for Book: %s, ID: %s, success: %d, failure: %d",
			bookTitle, b.ID.Hex(), fcmResp.Success, fcmResp.Failure)

		if err = s.DB.WishlistMarkNotified(ctx, we.ID); err != nil {
			s.Logger.Errorf("checkAlerts: Error marking WishlistEntry with ID: %s as notified, err: %v",
				we.ID.Hex(), err)
		}
	}
	s.Logger.Info("checkAlerts: Finished checking wishlist price alerts")
}
