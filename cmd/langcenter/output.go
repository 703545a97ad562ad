package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/wisekey/langcenter/internal/model"
)

func table(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
}

func printUser(w io.Writer, u model.UserSummary) {
	tw := table(w)
	fmt.Fprintf(tw, "ID\t%d\n", u.ID)
	fmt.Fprintf(tw, "Username\t%s\n", u.Username)
	fmt.Fprintf(tw, "Name\t%s\n", u.FullName())
	fmt.Fprintf(tw, "Email\t%s\n", u.Email)
	if u.Phone != "" {
		fmt.Fprintf(tw, "Phone\t%s\n", u.Phone)
	}
	fmt.Fprintf(tw, "Role\t%s\n", u.Role)
	tw.Flush()
}

func printCourses(w io.Writer, courses []model.Course) {
	if len(courses) == 0 {
		fmt.Fprintln(w, "No courses.")
		return
	}
	tw := table(w)
	fmt.Fprintln(tw, "ID\tCODE\tNAME\tLEVEL\tHOURS\tPRICE\tCLASSES\tACTIVE")
	for _, c := range courses {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%d\t%.0f\t%d\t%t\n",
			c.ID, c.Code, c.Name, c.Level, c.DurationHours, c.Price, c.TotalClasses, c.Active)
	}
	tw.Flush()
}

func printClasses(w io.Writer, classes []model.Class) {
	if len(classes) == 0 {
		fmt.Fprintln(w, "No classes.")
		return
	}
	tw := table(w)
	fmt.Fprintln(tw, "ID\tCODE\tCOURSE\tTEACHER\tSEATS\tSCHEDULE\tDATES\tSTATUS")
	for _, c := range classes {
		teacher := c.TeacherName
		if teacher == "" {
			teacher = "-"
		}
		seats := fmt.Sprintf("%d/%d", c.CurrentStudents, c.MaxStudents)
		if c.Full() {
			seats += " full"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s..%s\t%s\n",
			c.ID, c.Code, c.CourseName, teacher, seats, c.Schedule, c.StartDate, c.EndDate, c.Status)
	}
	tw.Flush()
}

func printGrades(w io.Writer, grades []model.Grade) {
	if len(grades) == 0 {
		fmt.Fprintln(w, "No grades.")
		return
	}
	tw := table(w)
	fmt.Fprintln(tw, "CLASS\tSTUDENT\tMIDTERM\tFINAL\tATTENDANCE\tTOTAL\tCOMMENTS")
	for _, g := range grades {
		fmt.Fprintf(tw, "%s\t%s\t%.1f\t%.1f\t%.1f\t%.2f\t%s\n",
			nameOr(g.ClassName, g.ClassID), nameOr(g.StudentName, g.StudentID),
			g.Midterm, g.Final, g.Attendance, g.Total, g.Comments)
	}
	tw.Flush()
}

func printAttendance(w io.Writer, records []model.AttendanceRecord) {
	if len(records) == 0 {
		fmt.Fprintln(w, "No attendance records.")
		return
	}
	tw := table(w)
	fmt.Fprintln(tw, "DATE\tCLASS\tSTUDENT\tSTATUS\tNOTES")
	for _, r := range records {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			r.Date, nameOr("", r.ClassID), nameOr(r.StudentName, r.StudentID), r.Status, r.Notes)
	}
	tw.Flush()
}

func printSummary(w io.Writer, s *model.AttendanceSummary) {
	tw := table(w)
	fmt.Fprintf(tw, "Sessions\t%d\n", s.Total)
	fmt.Fprintf(tw, "Present\t%d\n", s.Present)
	fmt.Fprintf(tw, "Absent\t%d\n", s.Absent)
	fmt.Fprintf(tw, "Excused\t%d\n", s.Excused)
	fmt.Fprintf(tw, "Rate\t%.1f%%\n", s.Rate)
	tw.Flush()
}

func printAdminDashboard(w io.Writer, d *model.AdminDashboard) {
	tw := table(w)
	fmt.Fprintf(tw, "Students\t%d\n", d.TotalStudents)
	fmt.Fprintf(tw, "Teachers\t%d\n", d.TotalTeachers)
	fmt.Fprintf(tw, "Courses\t%d (%d active)\n", d.TotalCourses, d.ActiveCourses)
	fmt.Fprintf(tw, "Classes\t%d (%d active)\n", d.TotalClasses, d.ActiveClasses)
	tw.Flush()

	if len(d.ClassesNearCapacity) > 0 {
		fmt.Fprintln(w, "\nNear capacity:")
		tw = table(w)
		for _, c := range d.ClassesNearCapacity {
			fmt.Fprintf(tw, "  %s\t%s\t%d/%d\n", c.ClassName, c.CourseName, c.CurrentStudents, c.MaxStudents)
		}
		tw.Flush()
	}
	if len(d.RecentEnrollments) > 0 {
		fmt.Fprintln(w, "\nRecent enrollments:")
		tw = table(w)
		for _, e := range d.RecentEnrollments {
			fmt.Fprintf(tw, "  %s\t%s\t%s\n", e.EnrolledAt.Format("2006-01-02"), e.StudentName, e.ClassName)
		}
		tw.Flush()
	}
}

func printTeacherDashboard(w io.Writer, d *model.TeacherDashboard) {
	fmt.Fprintf(w, "Classes: %d  Students: %d\n\n", d.TotalClasses, d.TotalStudents)
	printClasses(w, d.Classes)
}

func printStudentDashboard(w io.Writer, d *model.StudentDashboard) {
	fmt.Fprintf(w, "Enrolled: %d  Completed: %d  Average: %.2f\n\n", d.EnrolledClasses, d.CompletedClasses, d.AverageGrade)
	printGrades(w, d.Grades)
}

func nameOr(name string, id int64) string {
	if name != "" {
		return name
	}
	return fmt.Sprintf("#%d", id)
}
