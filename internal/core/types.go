// Package core exposes the transactional record-keeping service built on the
// domain store: producers, their herds, the treatment catalog, and the
// procedure workflow.
package core

import "ruralstock/pkg/domain"

type (
	Transaction     = domain.Transaction
	TransactionView = domain.TransactionView
	PersistentStore = domain.PersistentStore
	RulesEngine     = domain.RulesEngine
	Result          = domain.Result
	Change          = domain.Change

	Producer          = domain.Producer
	FamilyMember      = domain.FamilyMember
	Animal            = domain.Animal
	MedicationProfile = domain.MedicationProfile
	ConsumableProfile = domain.ConsumableProfile
	ProcedureRecord   = domain.ProcedureRecord
)
