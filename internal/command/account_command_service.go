package command

import (
	"context"
	"fmt"

	"github.com/mananchopra067-oss/blood-sugar-monitoring-system/internal/repository"
	"github.com/mananchopra067-oss/blood-sugar-monitoring-system/shared/cqrs"
	"github.com/mananchopra067-oss/blood-sugar-monitoring-system/shared/events"
	"github.com/mananchopra067-oss/blood-sugar-monitoring-system/shared/models"
	"github.com/mananchopra067-oss/blood-sugar-monitoring-system/shared/utils"
	"go.uber.org/zap"
)

// AccountCommandService writes account state to PostgreSQL, keeps the
// Redis profile cache honest and announces every change on the user
// event stream.
type AccountCommandService struct {
	writeRepo *repository.UserWriteRepository
	readRepo  *repository.UserReadRepository
	publisher *events.Publisher
	hasher    utils.PasswordHasher
	logger    *zap.Logger
}

func NewAccountCommandService(
	writeRepo *repository.UserWriteRepository,
	readRepo *repository.UserReadRepository,
	publisher *events.Publisher,
	hasher utils.PasswordHasher,
	logger *zap.Logger,
) *AccountCommandService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AccountCommandService{
		writeRepo: writeRepo,
		readRepo:  readRepo,
		publisher: publisher,
		hasher:    hasher,
		logger:    logger,
	}
}

// RegisterPatient creates a Patient user and its patient record.
func (s *AccountCommandService) RegisterPatient(ctx context.Context, cmd cqrs.RegisterPatientCommand) (int64, error) {
	return s.create(ctx, cmd.Name, cmd.Email, cmd.Password, cmd.Phone, &models.PatientData{
		HealthcareNumber: cmd.HealthcareNumber,
		DateOfBirth:      cmd.DateOfBirth,
	})
}

func (s *AccountCommandService) CreateSpecialist(ctx context.Context, cmd cqrs.CreateSpecialistCommand) (int64, error) {
	return s.create(ctx, cmd.Name, cmd.Email, cmd.Password, "", &models.SpecialistData{
		WorkingID:      cmd.WorkingID,
		Specialization: cmd.Specialization,
	})
}

func (s *AccountCommandService) CreateStaff(ctx context.Context, cmd cqrs.CreateStaffCommand) (int64, error) {
	return s.create(ctx, cmd.Name, cmd.Email, cmd.Password, "", &models.StaffData{
		WorkingID:  cmd.WorkingID,
		Department: cmd.Department,
	})
}

func (s *AccountCommandService) create(ctx context.Context, name, email, password, phone string, data models.RoleData) (int64, error) {
	passwordHash, err := s.hasher.Hash(password)
	if err != nil {
		return 0, fmt.Errorf("failed to hash password: %w", err)
	}
	user := &models.User{
		Name:         name,
		Email:        email,
		PasswordHash: passwordHash,
		Phone:        phone,
		Role:         data.Role(),
		Status:       models.StatusActive,
	}
	if err := s.writeRepo.Create(ctx, user, data); err != nil {
		return 0, err
	}

	s.publish(ctx, events.UserRegistered, events.UserRegisteredEvent{
		UserID: user.ID,
		Role:   string(user.Role),
		Email:  user.Email,
	})
	s.logger.Info("account created", zap.Int64("user_id", user.ID), zap.String("role", string(user.Role)))
	return user.ID, nil
}

// UpdateProfile replaces name, email, phone and profile image.
func (s *AccountCommandService) UpdateProfile(ctx context.Context, cmd cqrs.UpdateProfileCommand) error {
	user := &models.User{
		ID:           cmd.UserID,
		Name:         cmd.Name,
		Email:        cmd.Email,
		Phone:        cmd.Phone,
		ProfileImage: cmd.ProfileImage,
	}
	if err := s.writeRepo.UpdateProfile(ctx, user); err != nil {
		return err
	}
	s.readRepo.InvalidateProfile(ctx, cmd.UserID)
	s.publish(ctx, events.UserUpdated, events.UserUpdatedEvent{
		UserID: cmd.UserID,
		Email:  cmd.Email,
	})
	return nil
}

// DeleteUser removes the user and its role record.
func (s *AccountCommandService) DeleteUser(ctx context.Context, cmd cqrs.DeleteUserCommand) error {
	role, err := s.writeRepo.Delete(ctx, cmd.UserID)
	if err != nil {
		return err
	}
	s.readRepo.InvalidateProfile(ctx, cmd.UserID)
	s.publish(ctx, events.UserDeleted, events.UserDeletedEvent{
		UserID: cmd.UserID,
		Role:   string(role),
	})
	s.logger.Info("account deleted", zap.Int64("user_id", cmd.UserID), zap.String("role", string(role)))
	return nil
}

// publish failures never fail the write that produced the event.
func (s *AccountCommandService) publish(ctx context.Context, eventType string, data any) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, events.UserEventsStream, eventType, data); err != nil {
		s.logger.Warn("failed to publish event", zap.String("event", eventType), zap.Error(err))
	}
}
