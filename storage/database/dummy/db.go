// Package dummydb provides in-memory repositories backing the services in
// tests and in DEV mode before a database is provisioned.
package dummydb

import (
	"sync"

	"github.com/gyermekkert/admin/core/attendance"
	"github.com/gyermekkert/admin/core/backup"
	"github.com/gyermekkert/admin/core/invoice"
	"github.com/gyermekkert/admin/core/newsletter"
	"github.com/gyermekkert/admin/core/payroll"
	"github.com/gyermekkert/admin/core/team"
	"github.com/gyermekkert/admin/core/user"
)

type (
	DB struct {
		user       *userTable
		invoice    *invoiceTable
		payroll    *payrollTable
		attendance *attendanceTable
		newsletter *newsletterTable
		backup     *backupTable
		team       *teamTable
	}

	userTable struct {
		sync.RWMutex
		table map[string]*user.User
	}

	invoiceTable struct {
		sync.RWMutex
		table map[string]*invoice.Invoice
	}

	payrollTable struct {
		sync.RWMutex
		records   map[string]*payroll.Record
		summaries map[string]*payroll.Summary // keyed "year-month-org"
	}

	attendanceTable struct {
		sync.RWMutex
		classes  map[string]*attendance.Class
		students map[string]*attendance.Student
		records  map[string]*attendance.Record
	}

	newsletterTable struct {
		sync.RWMutex
		newsletters map[string]*newsletter.Newsletter
		forms       map[string]*newsletter.Form
		links       map[string]map[string]bool // newsletterID -> formID set
	}

	backupTable struct {
		sync.RWMutex
		runs     map[string]*backup.Run
		schedule *backup.Schedule
	}

	teamTable struct {
		sync.RWMutex
		teams   map[string]*team.Team
		members map[string]map[string]bool // teamID -> userID set
	}
)

func Open() (*DB, error) {
	db := &DB{
		user:    &userTable{table: make(map[string]*user.User)},
		invoice: &invoiceTable{table: make(map[string]*invoice.Invoice)},
		payroll: &payrollTable{
			records:   make(map[string]*payroll.Record),
			summaries: make(map[string]*payroll.Summary),
		},
		attendance: &attendanceTable{
			classes:  make(map[string]*attendance.Class),
			students: make(map[string]*attendance.Student),
			records:  make(map[string]*attendance.Record),
		},
		newsletter: &newsletterTable{
			newsletters: make(map[string]*newsletter.Newsletter),
			forms:       make(map[string]*newsletter.Form),
			links:       make(map[string]map[string]bool),
		},
		backup: &backupTable{runs: make(map[string]*backup.Run)},
		team: &teamTable{
			teams:   make(map[string]*team.Team),
			members: make(map[string]map[string]bool),
		},
	}
	return db, nil
}

// Reset empties every table; tests call it between cases.
func (db *DB) Reset() {
	db.user.Lock()
	db.user.table = make(map[string]*user.User)
	db.user.Unlock()

	db.invoice.Lock()
	db.invoice.table = make(map[string]*invoice.Invoice)
	db.invoice.Unlock()

	db.payroll.Lock()
	db.payroll.records = make(map[string]*payroll.Record)
	db.payroll.summaries = make(map[string]*payroll.Summary)
	db.payroll.Unlock()

	db.attendance.Lock()
	db.attendance.classes = make(map[string]*attendance.Class)
	db.attendance.students = make(map[string]*attendance.Student)
	db.attendance.records = make(map[string]*attendance.Record)
	db.attendance.Unlock()

	db.newsletter.Lock()
	db.newsletter.newsletters = make(map[string]*newsletter.Newsletter)
	db.newsletter.forms = make(map[string]*newsletter.Form)
	db.newsletter.links = make(map[string]map[string]bool)
	db.newsletter.Unlock()

	db.backup.Lock()
	db.backup.runs = make(map[string]*backup.Run)
	db.backup.schedule = nil
	db.backup.Unlock()

	db.team.Lock()
	db.team.teams = make(map[string]*team.Team)
	db.team.members = make(map[string]map[string]bool)
	db.team.Unlock()
}
