package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/wisekey/langcenter/internal/app"
	"github.com/wisekey/langcenter/internal/auth"
	"github.com/wisekey/langcenter/internal/guard"
	"github.com/wisekey/langcenter/internal/model"
	"github.com/wisekey/langcenter/internal/session"
	"golang.org/x/term"
)

type cli struct {
	app    *app.App
	out    io.Writer
	errOut io.Writer
	in     io.Reader
}

type command struct {
	name    string
	summary string
	run     func(c *cli, ctx context.Context, fs *flag.FlagSet, args []string) error
}

var commands []command

func init() {
	commands = []command{
		{"login", "sign in and store the session", (*cli).login},
		{"register", "create a student account", (*cli).register},
		{"logout", "end the stored session", (*cli).logout},
		{"whoami", "show the signed-in user", (*cli).whoami},
		{"open", "resolve a location against the route guard", (*cli).open},
		{"courses", "list or search courses", (*cli).courses},
		{"classes", "list classes", (*cli).classes},
		{"enroll", "enroll in a class", (*cli).enroll},
		{"grades", "list grades", (*cli).grades},
		{"grade", "record one student's grade", (*cli).grade},
		{"attendance", "list or take attendance", (*cli).attendance},
		{"dashboard", "show the dashboard for your role", (*cli).dashboard},
	}
}

func (c *cli) dispatch(ctx context.Context, name string, args []string) error {
	for _, cmd := range commands {
		if cmd.name != name {
			continue
		}
		fs := flag.NewFlagSet(name, flag.ContinueOnError)
		fs.SetOutput(c.errOut)
		return cmd.run(c, ctx, fs, args)
	}
	fmt.Fprintf(c.errOut, "unknown command %q\n", name)
	usage(c.errOut)
	return errUsage
}

func parse(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	return nil
}

// session returns the stored session or ErrNotLoggedIn.
func (c *cli) session() (*session.Session, error) {
	sess := c.app.Auth.Current()
	if sess == nil {
		return nil, auth.ErrNotLoggedIn
	}
	return sess, nil
}

// readPassword prompts on the terminal without echo, or reads one line when
// stdin is not a terminal.
func (c *cli) readPassword(prompt string) (string, error) {
	fmt.Fprint(c.errOut, prompt)
	if f, ok := c.in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(c.errOut)
		return string(b), err
	}
	line, err := bufio.NewReader(c.in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// ─── Account ───────────────────────────────────────────────────────────

func (c *cli) login(ctx context.Context, fs *flag.FlagSet, args []string) error {
	username := fs.String("u", "", "username")
	password := fs.String("p", "", "password (prompted when empty)")
	if err := parse(fs, args); err != nil {
		return err
	}
	if *password == "" {
		pw, err := c.readPassword("Password: ")
		if err != nil {
			return err
		}
		*password = pw
	}

	sess, err := c.app.Auth.Login(ctx, *username, *password)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "Logged in as %s (%s)\n", sess.User.FullName(), sess.Role())
	fmt.Fprintf(c.out, "Home: %s\n", c.app.Nav.Navigate(guard.Home(sess.Role())))
	return nil
}

func (c *cli) register(ctx context.Context, fs *flag.FlagSet, args []string) error {
	var in model.RegisterInput
	fs.StringVar(&in.Username, "u", "", "username")
	fs.StringVar(&in.Password, "p", "", "password (prompted when empty)")
	fs.StringVar(&in.FullName, "name", "", "full name")
	fs.StringVar(&in.Email, "email", "", "email")
	fs.StringVar(&in.Phone, "phone", "", "phone")
	if err := parse(fs, args); err != nil {
		return err
	}

	if in.Password == "" {
		pw, err := c.readPassword("Password: ")
		if err != nil {
			return err
		}
		confirm, err := c.readPassword("Confirm password: ")
		if err != nil {
			return err
		}
		in.Password, in.ConfirmPassword = pw, confirm
	} else {
		in.ConfirmPassword = in.Password
	}

	u, err := c.app.Auth.Register(ctx, in)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "Registered %s (id %d). Log in to continue.\n", u.Username, u.ID)
	return nil
}

func (c *cli) logout(ctx context.Context, fs *flag.FlagSet, args []string) error {
	if err := parse(fs, args); err != nil {
		return err
	}
	if err := c.app.Auth.Logout(ctx); err != nil {
		return err
	}
	fmt.Fprintln(c.out, "Logged out")
	return nil
}

func (c *cli) whoami(_ context.Context, fs *flag.FlagSet, args []string) error {
	if err := parse(fs, args); err != nil {
		return err
	}
	sess, err := c.session()
	if err != nil {
		return err
	}
	printUser(c.out, sess.User)
	return nil
}

func (c *cli) open(_ context.Context, fs *flag.FlagSet, args []string) error {
	if err := parse(fs, args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(c.errOut, "usage: langcenter open <path>")
		return errUsage
	}
	fmt.Fprintln(c.out, c.app.Nav.Navigate(fs.Arg(0)))
	return nil
}

// ─── Catalog ───────────────────────────────────────────────────────────

func (c *cli) courses(ctx context.Context, fs *flag.FlagSet, args []string) error {
	query := fs.String("q", "", "search by name or code")
	all := fs.Bool("all", false, "include inactive courses")
	if err := parse(fs, args); err != nil {
		return err
	}

	var (
		list []model.Course
		err  error
	)
	switch {
	case *query != "":
		list, err = c.app.Services.Courses.Search(ctx, *query)
	case *all:
		list, err = c.app.Services.Courses.List(ctx)
	default:
		list, err = c.app.Services.Courses.ListActive(ctx)
	}
	if err != nil {
		return err
	}
	printCourses(c.out, list)
	return nil
}

func (c *cli) classes(ctx context.Context, fs *flag.FlagSet, args []string) error {
	courseID := fs.Int64("course", 0, "only classes of this course")
	available := fs.Bool("available", false, "only open classes with free seats")
	mine := fs.Bool("mine", false, "only classes you teach")
	if err := parse(fs, args); err != nil {
		return err
	}

	var (
		list []model.Class
		err  error
	)
	switch {
	case *mine:
		me, serr := c.session()
		if serr != nil {
			return serr
		}
		list, err = c.app.Services.Classes.ListByTeacher(ctx, me.User.ID)
	case *courseID > 0:
		list, err = c.app.Services.Classes.ListByCourse(ctx, *courseID)
	case *available:
		list, err = c.app.Services.Classes.ListAvailable(ctx)
	default:
		list, err = c.app.Services.Classes.List(ctx)
	}
	if err != nil {
		return err
	}
	printClasses(c.out, list)
	return nil
}

func (c *cli) enroll(ctx context.Context, fs *flag.FlagSet, args []string) error {
	studentID := fs.Int64("student", 0, "student to enroll (defaults to you)")
	if err := parse(fs, args); err != nil {
		return err
	}
	classID, err := idArg(fs, "usage: langcenter enroll [-student ID] <classID>", c.errOut)
	if err != nil {
		return err
	}
	me, err := c.session()
	if err != nil {
		return err
	}
	if *studentID == 0 {
		*studentID = me.User.ID
	}

	class, err := c.app.Services.Classes.Get(ctx, classID)
	if err != nil {
		return err
	}
	if class.Full() {
		return fmt.Errorf("class %s is full (%d/%d)", class.Code, class.CurrentStudents, class.MaxStudents)
	}

	e, err := c.app.Services.Enrollments.Create(ctx, model.EnrollmentInput{StudentID: *studentID, ClassID: classID})
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "Enrolled in %s (enrollment %d)\n", e.ClassName, e.ID)
	return nil
}

// ─── Grades & Attendance ───────────────────────────────────────────────

func (c *cli) grades(ctx context.Context, fs *flag.FlagSet, args []string) error {
	classID := fs.Int64("class", 0, "all grades of a class")
	studentID := fs.Int64("student", 0, "grades of a student (defaults to you)")
	if err := parse(fs, args); err != nil {
		return err
	}

	var (
		list []model.Grade
		err  error
	)
	if *classID > 0 {
		list, err = c.app.Services.Grades.ListByClass(ctx, *classID)
	} else {
		if *studentID == 0 {
			me, serr := c.session()
			if serr != nil {
				return serr
			}
			*studentID = me.User.ID
		}
		list, err = c.app.Services.Grades.ListByStudent(ctx, *studentID)
	}
	if err != nil {
		return err
	}
	printGrades(c.out, list)
	return nil
}

func (c *cli) grade(ctx context.Context, fs *flag.FlagSet, args []string) error {
	var in model.GradeInput
	fs.Int64Var(&in.ClassID, "class", 0, "class ID")
	fs.Int64Var(&in.StudentID, "student", 0, "student ID")
	fs.Float64Var(&in.Midterm, "midterm", 0, "midterm score (0-10)")
	fs.Float64Var(&in.Final, "final", 0, "final score (0-10)")
	fs.Float64Var(&in.Attendance, "attendance", 0, "attendance score (0-10)")
	fs.StringVar(&in.Comments, "comments", "", "comments")
	if err := parse(fs, args); err != nil {
		return err
	}

	saved, err := c.app.Services.Grades.Save(ctx, []model.GradeInput{in})
	if err != nil {
		return err
	}
	printGrades(c.out, saved)
	return nil
}

func (c *cli) attendance(ctx context.Context, fs *flag.FlagSet, args []string) error {
	classID := fs.Int64("class", 0, "class ID")
	date := fs.String("date", "", "session date (YYYY-MM-DD)")
	studentID := fs.Int64("student", 0, "summarize one student in the class")
	fs.Usage = func() {
		fmt.Fprintln(c.errOut, "usage: langcenter attendance -class ID [-date D [studentID=STATUS ...]] [-student ID]")
		fs.PrintDefaults()
	}
	if err := parse(fs, args); err != nil {
		return err
	}
	if *classID == 0 {
		fs.Usage()
		return errUsage
	}

	switch {
	case *studentID > 0:
		sum, err := c.app.Services.Attendance.Summary(ctx, *studentID, *classID)
		if err != nil {
			return err
		}
		printSummary(c.out, sum)
		return nil
	case *date != "" && fs.NArg() > 0:
		sheet := model.AttendanceSheet{ClassID: *classID, Date: *date}
		for _, arg := range fs.Args() {
			entry, err := parseEntry(arg)
			if err != nil {
				fmt.Fprintln(c.errOut, err)
				return errUsage
			}
			sheet.Entries = append(sheet.Entries, entry)
		}
		records, err := c.app.Services.Attendance.Take(ctx, sheet)
		if err != nil {
			return err
		}
		printAttendance(c.out, records)
		return nil
	case *date != "":
		records, err := c.app.Services.Attendance.ListByDate(ctx, *classID, *date)
		if err != nil {
			return err
		}
		printAttendance(c.out, records)
		return nil
	default:
		records, err := c.app.Services.Attendance.ListByClass(ctx, *classID)
		if err != nil {
			return err
		}
		printAttendance(c.out, records)
		return nil
	}
}

// parseEntry reads "studentID=STATUS".
func parseEntry(arg string) (model.AttendanceEntry, error) {
	id, status, ok := strings.Cut(arg, "=")
	if !ok {
		return model.AttendanceEntry{}, fmt.Errorf("bad entry %q, want studentID=STATUS", arg)
	}
	studentID, err := strconv.ParseInt(id, 10, 64)
	if err != nil || studentID <= 0 {
		return model.AttendanceEntry{}, fmt.Errorf("bad student ID in %q", arg)
	}
	return model.AttendanceEntry{
		StudentID: studentID,
		Status:    model.AttendanceStatus(strings.ToUpper(strings.TrimSpace(status))),
	}, nil
}

// ─── Dashboard ─────────────────────────────────────────────────────────

func (c *cli) dashboard(ctx context.Context, fs *flag.FlagSet, args []string) error {
	if err := parse(fs, args); err != nil {
		return err
	}
	me, err := c.session()
	if err != nil {
		return err
	}

	switch me.Role() {
	case model.RoleAdmin:
		d, err := c.app.Services.Dashboard.Admin(ctx)
		if err != nil {
			return err
		}
		printAdminDashboard(c.out, d)
	case model.RoleTeacher:
		d, err := c.app.Services.Dashboard.Teacher(ctx, me.User.ID)
		if err != nil {
			return err
		}
		printTeacherDashboard(c.out, d)
	default:
		d, err := c.app.Services.Dashboard.Student(ctx, me.User.ID)
		if err != nil {
			return err
		}
		printStudentDashboard(c.out, d)
	}
	return nil
}

func idArg(fs *flag.FlagSet, usage string, w io.Writer) (int64, error) {
	if fs.NArg() != 1 {
		fmt.Fprintln(w, usage)
		return 0, errUsage
	}
	id, err := strconv.ParseInt(fs.Arg(0), 10, 64)
	if err != nil || id <= 0 {
		fmt.Fprintln(w, usage)
		return 0, errUsage
	}
	return id, nil
}
