package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/rs/zerolog"

	"github.com/hackgods/hospital-scheduling/internal/appointment"
)

// Store is the write surface needed to seed a fresh installation. Both
// repositories implement it.
type Store interface {
	EnsureDepartment(ctx context.Context, d appointment.Department) (*appointment.Department, error)
	CountDoctors(ctx context.Context) (int, error)
	CreateDoctor(ctx context.Context, d appointment.Doctor) (*appointment.Doctor, error)
	CreatePatient(ctx context.Context, p appointment.Patient) (*appointment.Patient, error)
	UpsertWindow(ctx context.Context, w appointment.AvailabilityWindow) (*appointment.AvailabilityWindow, error)
}

type Options struct {
	Today        time.Time // first day of the sample availability
	WindowDays   int       // days of 09:00-17:00 availability per sample doctor
	FakePatients int       // extra generated patients
}

type Result struct {
	Departments int
	Doctors     int
	Patients    int
	Windows     int
}

var departments = []appointment.Department{
	{Name: "Cardiology", Description: "Heart and cardiovascular system"},
	{Name: "Neurology", Description: "Brain and nervous system"},
	{Name: "Orthopedics", Description: "Bones, joints, and muscles"},
	{Name: "Pediatrics", Description: "Children health care"},
	{Name: "Dermatology", Description: "Skin, hair, and nails"},
	{Name: "General Medicine", Description: "General health and common diseases"},
	{Name: "ENT", Description: "Ear, Nose, and Throat"},
	{Name: "Ophthalmology", Description: "Eye care and vision"},
}

type sampleDoctor struct {
	appointment.Doctor
	department string
}

var sampleDoctors = []sampleDoctor{
	{appointment.Doctor{FullName: "Dr. John Smith", Specialization: "Cardiologist", Phone: "9876543210", Qualification: "MBBS, MD Cardiology", ExperienceYears: 15, ConsultationFee: 500}, "Cardiology"},
	{appointment.Doctor{FullName: "Dr. Priya Patel", Specialization: "Neurologist", Phone: "9876543211", Qualification: "MBBS, MD Neurology", ExperienceYears: 12, ConsultationFee: 600}, "Neurology"},
	{appointment.Doctor{FullName: "Dr. Raj Kumar", Specialization: "Orthopedic Surgeon", Phone: "9876543212", Qualification: "MBBS, MS Orthopedics", ExperienceYears: 10, ConsultationFee: 450}, "Orthopedics"},
	{appointment.Doctor{FullName: "Dr. Anjali Sharma", Specialization: "Pediatrician", Phone: "9876543213", Qualification: "MBBS, MD Pediatrics", ExperienceYears: 8, ConsultationFee: 400}, "Pediatrics"},
	{appointment.Doctor{FullName: "Dr. Amit Gupta", Specialization: "General Physician", Phone: "9876543214", Qualification: "MBBS, MD Medicine", ExperienceYears: 20, ConsultationFee: 350}, "General Medicine"},
}

var samplePatients = []appointment.Patient{
	{FullName: "Rahul Verma", Phone: "9123456780", Gender: "Male", BloodGroup: "O+", Address: "123 MG Road, Mumbai"},
	{FullName: "Sneha Reddy", Phone: "9123456781", Gender: "Female", BloodGroup: "A+", Address: "456 Park Street, Delhi"},
	{FullName: "Arjun Singh", Phone: "9123456782", Gender: "Male", BloodGroup: "B+", Address: "789 Brigade Road, Bangalore"},
	{FullName: "Pooja Iyer", Phone: "9123456783", Gender: "Female", BloodGroup: "AB+", Address: "321 Anna Salai, Chennai"},
}

var sampleBirthDates = []string{"1990-05-15", "1995-08-20", "1988-12-10", "1992-03-25"}

var bloodGroups = []string{"A+", "A-", "B+", "B-", "O+", "O-", "AB+", "AB-"}

// Run seeds departments, and on an empty doctor table the sample doctors with
// their availability and the sample patients. Running it again only ensures
// the departments exist.
func Run(ctx context.Context, store Store, opts Options) (Result, error) {
	logger := zerolog.Ctx(ctx)
	var res Result

	byName := make(map[string]*appointment.Department, len(departments))
	for _, d := range departments {
		dep, err := store.EnsureDepartment(ctx, d)
		if err != nil {
			return res, fmt.Errorf("ensure department %s: %w", d.Name, err)
		}
		byName[dep.Name] = dep
		res.Departments++
	}

	n, err := store.CountDoctors(ctx)
	if err != nil {
		return res, fmt.Errorf("count doctors: %w", err)
	}
	if n > 0 {
		logger.Info().Int("doctors", n).Msg("sample data already present, skipping")
		return res, nil
	}

	today := appointment.DateOf(opts.Today)
	for _, sd := range sampleDoctors {
		doc := sd.Doctor
		doc.DepartmentID = byName[sd.department].ID
		doc.Active = true

		created, err := store.CreateDoctor(ctx, doc)
		if err != nil {
			return res, fmt.Errorf("create doctor %s: %w", doc.FullName, err)
		}
		res.Doctors++

		for i := 0; i < opts.WindowDays; i++ {
			_, err := store.UpsertWindow(ctx, appointment.AvailabilityWindow{
				DoctorID:    created.ID,
				Date:        today.AddDate(0, 0, i),
				StartTime:   appointment.DefaultStartTime,
				EndTime:     appointment.DefaultEndTime,
				IsAvailable: true,
			})
			if err != nil {
				return res, fmt.Errorf("create availability for %s: %w", doc.FullName, err)
			}
			res.Windows++
		}
	}

	for i, p := range samplePatients {
		dob, _ := appointment.ParseDate(sampleBirthDates[i])
		p.DateOfBirth = &dob
		p.Active = true
		if _, err := store.CreatePatient(ctx, p); err != nil {
			return res, fmt.Errorf("create patient %s: %w", p.FullName, err)
		}
		res.Patients++
	}

	for i := 0; i < opts.FakePatients; i++ {
		if _, err := store.CreatePatient(ctx, fakePatient()); err != nil {
			return res, fmt.Errorf("create fake patient: %w", err)
		}
		res.Patients++
	}

	logger.Info().
		Int("departments", res.Departments).
		Int("doctors", res.Doctors).
		Int("patients", res.Patients).
		Int("windows", res.Windows).
		Msg("sample data created")

	return res, nil
}

func fakePatient() appointment.Patient {
	email := gofakeit.Email()
	dob := appointment.DateOf(gofakeit.DateRange(
		time.Date(1940, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2015, 12, 31, 0, 0, 0, 0, time.UTC),
	))
	addr := gofakeit.Address()

	return appointment.Patient{
		FullName:         gofakeit.Name(),
		Phone:            gofakeit.Phone(),
		Email:            &email,
		DateOfBirth:      &dob,
		Gender:           gofakeit.RandomString([]string{"Male", "Female", "Other"}),
		BloodGroup:       gofakeit.RandomString(bloodGroups),
		Address:          fmt.Sprintf("%s, %s", addr.Street, addr.City),
		EmergencyContact: gofakeit.Phone(),
		Active:           true,
	}
}
