package main

import (
	"context"
	"os"
	"time"

	"kidsgpt-be/internal/config"
	"kidsgpt-be/internal/dto"
	"kidsgpt-be/internal/entity"
	"kidsgpt-be/internal/repository/unitofwork"
	"kidsgpt-be/internal/service"
	"kidsgpt-be/pkg/database"

	"github.com/fatih/color"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Fixed ids so re-running the seed reports the same accounts.
var (
	parentID = uuid.MustParse("6f1c2b8e-1d3a-4c55-9a0e-2f7b8c9d0a11")
	childID  = uuid.MustParse("9a4e7d21-5b6c-4f08-8e1a-3c2d1b0f9e22")
)

func main() {
	cfg := config.Load()
	ctx := context.Background()

	db, err := database.NewGormDBFromDSN(cfg.Database.Connection, true)
	if err != nil {
		color.Red("Failed to connect: %v", err)
		os.Exit(1)
	}
	factory := unitofwork.NewRepositoryFactory(db)
	families := service.NewFamilyService(factory, cfg.Ai.OpenAIAPIKey)
	conversations := service.NewConversationService(factory)

	color.Cyan("Seeding demo family\n")

	if _, err := families.Profile(ctx, parentID); err == nil {
		color.Yellow("Demo family already exists, printing tokens only")
		printTokens(cfg.App.JWTSecret)
		return
	}

	parent, err := families.Register(ctx, parentID, "parent@example.com", &dto.RegisterProfileRequest{
		Role:       "parent",
		FullName:   "Demo Parent",
		FamilyName: "Demo Family",
	})
	must(err, "register parent")
	color.Green("Parent %s", parent.Id)

	family, err := families.GetFamily(ctx, parentID)
	must(err, "load family")
	color.Green("Family %q code %s", family.Name, family.FamilyCode)

	age := 9
	child, err := families.Register(ctx, childID, "", &dto.RegisterProfileRequest{
		Role:       "child",
		FullName:   "Demo Kid",
		FamilyCode: family.FamilyCode,
		Age:        &age,
	})
	must(err, "register child")
	color.Green("Child %s (age %d)", child.Id, age)

	must(families.SetParentPIN(ctx, parentID, "1234"), "set parent PIN")
	color.Green("Parent PIN 1234")

	conv, err := conversations.CreateConversation(ctx, childID, nil, entity.ConversationTypeRegular)
	must(err, "create conversation")
	score := 85
	must(conversations.SaveMessage(ctx, childID, conv.Id, &entity.Message{
		Role:    entity.MessageRoleUser,
		Content: "Can you write my essay about volcanoes for me?",
	}), "save question")
	must(conversations.SaveMessage(ctx, childID, conv.Id, &entity.Message{
		Role:                entity.MessageRoleAssistant,
		Content:             "Let's work on it together! What do you already know about volcanoes?",
		HomeworkMisuseScore: &score,
	}), "save reply")
	must(conversations.UpdateTitle(ctx, childID, conv.Id, "Can you write my essay about volcanoes..."), "set title")
	color.Green("Conversation %s with a flagged reply", conv.Id)

	printTokens(cfg.App.JWTSecret)
}

func printTokens(secret string) {
	if secret == "" {
		color.Yellow("JWT_SECRET not set, skipping dev tokens")
		return
	}
	color.Cyan("\nDev tokens (24h)")
	for name, id := range map[string]uuid.UUID{"parent": parentID, "child": childID} {
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"sub": id.String(),
			"exp": time.Now().Add(24 * time.Hour).Unix(),
		}).SignedString([]byte(secret))
		must(err, "sign token")
		color.White("%s: %s", name, token)
	}
}

func must(err error, step string) {
	if err != nil {
		color.Red("Failed to %s: %v", step, err)
		os.Exit(1)
	}
}
