package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/example/realestate-chat/domain/chat"
	"github.com/example/realestate-chat/events"
	"github.com/example/realestate-chat/modules/store"
)

// message validates, persists and fans out one chat message.
// Membership is read from the store on every call.
func (h *Handler) message(ctx context.Context, conn *Connection, cmd MessageCommand) *CommandError {
	senderID, ok := conn.UserID()
	if !ok {
		return newError(KindAuthorization, ReasonNotAuthenticated)
	}

	if cmd.Content == "" || cmd.RoomID == 0 || cmd.MessageType == "" {
		return newError(KindValidation, ReasonMissingFields)
	}
	msgType := chat.MessageType(cmd.MessageType)
	if !msgType.Valid() {
		return newError(KindValidation, ReasonInvalidMessageType)
	}

	roomID := int64(cmd.RoomID)
	room, err := h.store.FindRoom(ctx, roomID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return newError(KindNotFound, ReasonRoomNotFound)
		}
		return internalError(err)
	}

	member, err := h.store.FindMember(ctx, roomID, senderID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return internalError(err)
	}
	if member == nil || member.Status != chat.MemberJoined {
		return newError(KindAuthorization, ReasonNotAMember)
	}

	msg := &chat.Message{
		RoomID:      roomID,
		SenderID:    senderID,
		Content:     cmd.Content,
		MessageType: msgType,
		Media:       nonEmpty(cmd.Media),
		IsRead:      false,
	}
	if err := h.store.CreateMessage(ctx, msg); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return newError(KindNotFound, ReasonRoomNotFound)
		}
		return internalError(err)
	}

	sender, err := h.store.FindUser(ctx, senderID)
	if err != nil {
		return internalError(err)
	}

	members, err := h.store.RoomMembers(ctx, roomID)
	if err != nil {
		return internalError(err)
	}

	data, err := json.Marshal(newBroadcastFrame(msg, sender, room))
	if err != nil {
		return internalError(err)
	}
	recipients, delivered := h.broadcast(members, data)

	h.logger.Info("Message sent",
		"roomID", roomID,
		"messageID", msg.MessageID,
		"senderID", senderID,
		"delivered", delivered)

	if h.publisher != nil {
		evt := events.MessageSentEvent{
			MessageID:    msg.MessageID,
			RoomID:       roomID,
			SenderID:     senderID,
			SenderName:   sender.Fullname,
			Content:      msg.Content,
			MessageType:  string(msg.MessageType),
			RecipientIDs: recipients,
			Delivered:    delivered,
			Timestamp:    time.Now(),
		}
		if err := h.publisher.PublishMessageSent(evt); err != nil {
			h.logger.Warn("Failed to publish MessageSent event", "messageID", msg.MessageID, "error", err)
		}
	}
	return nil
}

// broadcast writes data to every open connection of every joined member.
// It returns the joined member IDs and the number of frames written.
func (h *Handler) broadcast(members []chat.Member, data []byte) ([]int64, int) {
	recipients := make([]int64, 0, len(members))
	delivered := 0

	for _, member := range members {
		if member.Status != chat.MemberJoined {
			continue
		}
		recipients = append(recipients, member.UserID)

		for _, conn := range h.registry.ConnectionsFor(member.UserID) {
			if !conn.IsOpen() {
				continue
			}
			if err := conn.SendRaw(data); err != nil {
				h.logger.Debug("Broadcast write failed",
					"userID", member.UserID,
					"connection", conn.ID(),
					"error", err)
				continue
			}
			delivered++
		}
	}
	return recipients, delivered
}

func nonEmpty(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	return s
}
