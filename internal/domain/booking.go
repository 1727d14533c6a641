package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type ServiceType string

const (
	ServiceTypeCarRental ServiceType = "car_rental"
	ServiceTypeTransfer  ServiceType = "transfer"
)

func (t ServiceType) Valid() bool {
	return t == ServiceTypeCarRental || t == ServiceTypeTransfer
}

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// Statuses lists every booking status in lifecycle order.
var Statuses = []Status{StatusPending, StatusConfirmed, StatusActive, StatusCompleted, StatusCancelled}

func (s Status) Valid() bool {
	for _, known := range Statuses {
		if s == known {
			return true
		}
	}
	return false
}

// Resource is the rentable unit a booking points at. Its concrete type
// determines the service type, so a car booking cannot carry a transfer id.
type Resource interface {
	ServiceType() ServiceType
	ResourceID() string
	isResource()
}

type CarRef struct {
	CarID string
}

func (CarRef) ServiceType() ServiceType { return ServiceTypeCarRental }
func (r CarRef) ResourceID() string     { return r.CarID }
func (CarRef) isResource()              {}

type TransferRef struct {
	TransferID string
}

func (TransferRef) ServiceType() ServiceType { return ServiceTypeTransfer }
func (r TransferRef) ResourceID() string     { return r.TransferID }
func (TransferRef) isResource()              {}

// NewResource builds the resource matching serviceType, or nil when the
// service type is unknown.
func NewResource(serviceType ServiceType, id string) Resource {
	switch serviceType {
	case ServiceTypeCarRental:
		return CarRef{CarID: id}
	case ServiceTypeTransfer:
		return TransferRef{TransferID: id}
	default:
		return nil
	}
}

type Driver struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Age   int    `json:"age"`
}

type Money struct {
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
}

type Booking struct {
	ID              string
	ServiceType     ServiceType
	Resource        Resource
	Drivers         []Driver
	PickupLocation  string
	DropoffLocation string
	PickupTime      time.Time
	DropoffTime     time.Time
	Pricing         Money
	Status          Status
	Reference       string
	Version         int64
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// BookingFilter narrows ListBookings. Zero values match everything.
type BookingFilter struct {
	Status      Status
	ServiceType ServiceType
	Limit       int
	Offset      int
}
