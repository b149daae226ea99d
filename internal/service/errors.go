package service

import (
	"context"
	"errors"
	"fmt"
)

// Ошибки валидации и not-found.
var (
	ErrProviderNotFound     = errors.New("provider not found")
	ErrBookingNotFound      = errors.New("booking not found")
	ErrLeaveNotFound        = errors.New("leave request not found")
	ErrRecurringNotFound    = errors.New("recurring booking not found")
	ErrInvalidConfiguration = errors.New("invalid provider configuration: want exactly 8 valid HH:MM times")
	ErrInvalidDateRange     = errors.New("end date must be after start date")
	ErrSlotTimeNotOffered   = errors.New("slot time is not offered by provider")
)

// Конфликты.
var (
	ErrSlotUnavailable       = errors.New("slot unavailable")
	ErrDuplicateLeave        = errors.New("leave already requested for this date")
	ErrLeaveAlreadyProcessed = errors.New("leave request already processed")
	ErrAlreadyCancelled      = errors.New("recurring booking already cancelled")
	ErrBookingNotScheduled   = errors.New("booking is not in scheduled state")
)

// Политики; названия этих ошибок отдаются клиенту дословно.
var (
	ErrWeekendNotBookable           = errors.New("weekend slots are not bookable")
	ErrChildNotOwned                = errors.New("child does not belong to parent")
	ErrNotOwner                     = errors.New("recurring booking belongs to another parent")
	ErrBookingWindowExceeded        = errors.New("slot is outside the booking window")
	ErrPastDate                     = errors.New("date is in the past")
	ErrNoBalanceRemaining           = errors.New("no leave balance remaining")
	ErrOptionalAlreadyUsedThisMonth = errors.New("optional leave already used this month")
)

// Системные.
var (
	ErrTransactionTimeout  = errors.New("transaction timed out")
	ErrLeaveApprovalFailed = errors.New("leave approval failed, rolled back to pending")
)

// wrapTxErr переводит обрыв по дедлайну контекста в ErrTransactionTimeout;
// транзакция к этому моменту уже откатана целиком, частичного состояния нет.
func wrapTxErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrTransactionTimeout, err)
	}
	return err
}
