package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"trainerdesk/internal/config"
	"trainerdesk/internal/database"
	"trainerdesk/internal/domain"
	"trainerdesk/internal/domain/access"
	"trainerdesk/internal/domain/booking"
	"trainerdesk/internal/domain/ledger"
	"trainerdesk/internal/domain/ot"
	"trainerdesk/internal/pkg/bizday"
)

func main() {
	_ = godotenv.Load()

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		dsn = "trainerdesk.db"
	}
	db, err := database.Connect(dsn)
	if err != nil {
		log.Fatal("DB connection failed:", err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatal("migrate failed:", err)
	}

	policy, err := config.LoadPolicy()
	if err != nil {
		log.Fatal(err)
	}

	log.Println("Cleaning old data...")
	for _, table := range []string{"salary_adjustments", "trainer_dayoffs", "ot_assignment_history", "schedules", "ot_assignments", "members"} {
		if err := db.Exec("DELETE FROM " + table).Error; err != nil {
			log.Fatalf("clean %s: %v", table, err)
		}
	}

	ledgerService := ledger.NewService(ledger.NewRepository(db))
	otService := ot.NewService(db, ot.NewRepository(db), policy)
	bookingService := booking.NewService(db, booking.NewRepository(db), ledgerService, otService, policy)

	ctx := context.Background()
	admin := access.System
	trainerA, trainerB := uuid.New(), uuid.New()

	log.Println("Creating members...")
	purchases := []ledger.RegisterInput{
		{TrainerID: trainerA, Name: "Kim Minji", Phone: "010-1111-2222", Sessions: 10, UnitPrice: 60000, Channel: "FC"},
		{TrainerID: trainerA, Name: "Kim Minji", Phone: "010-1111-2222", Sessions: 20, UnitPrice: 55000, Channel: "FC"},
		{TrainerID: trainerA, Name: "Lee Jun", Phone: "010-3333-4444", Sessions: 8, UnitPrice: 70000, Channel: domain.ChannelWalkIn},
		{TrainerID: trainerB, Name: "Park Sora", Phone: "010-5555-6666", Sessions: 30, UnitPrice: 50000, Channel: "OL"},
	}
	var members []*domain.Member
	for _, in := range purchases {
		m, err := ledgerService.Register(ctx, admin, in)
		if err != nil {
			log.Fatalf("register %s: %v", in.Name, err)
		}
		members = append(members, m)
	}

	trial, err := ledgerService.Register(ctx, admin, ledger.RegisterInput{
		TrainerID: trainerA, Name: "Choi Yuna", Phone: "010-7777-8888",
		Sessions: 3, UnitPrice: 0, Channel: "FC", MemberType: domain.MemberTrial,
	})
	if err != nil {
		log.Fatalf("register trial: %v", err)
	}
	assignments, err := otService.Assign(ctx, admin, trial.ID, trainerB, 2)
	if err != nil {
		log.Fatalf("assign trial: %v", err)
	}

	log.Println("Creating bookings...")
	tomorrow := bizday.In(time.Now()).AddDate(0, 0, 1).Format(bizday.DateLayout)
	slots := []booking.BookInput{
		{MemberID: members[0].ID, TrainerID: trainerA, Date: tomorrow, Start: "09:00"},
		{MemberID: members[2].ID, TrainerID: trainerA, Date: tomorrow, Start: "10:00"},
		{MemberID: members[3].ID, TrainerID: trainerB, Date: tomorrow, Start: "09:00"},
		{MemberID: trial.ID, TrainerID: trainerB, Date: tomorrow, Start: "11:00", OTAssignmentID: &assignments[0].ID},
	}
	for _, in := range slots {
		if _, err := bookingService.Book(ctx, admin, in); err != nil {
			log.Fatalf("book %s %s: %v", in.Date, in.Start, err)
		}
	}

	log.Printf("seed done trainer_a=%s trainer_b=%s members=%d bookings=%d", trainerA, trainerB, len(members)+1, len(slots))
	log.Println("mint a token with: trainerctl token --user <trainer id> --role trainer")
}
