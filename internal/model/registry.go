package model

import "github.com/google/uuid"

// All lists every persisted model in migration order.
func All() []interface{} {
	return []interface{}{
		&Family{},
		&Profile{},
		&FamilyMember{},
		&ConversationFolder{},
		&Conversation{},
		&Message{},
		&PersonalityProfile{},
		&Comic{},
		&Character{},
	}
}

func assignId(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}
