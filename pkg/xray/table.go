package xray

import "strings"

var defaultDB = func() *Database {
	db := NewDatabase(measured)
	db.periodic = true
	return db
}()

// Element symbols in order of atomic number, H through Am
var symbols = strings.Fields(`
	H He Li Be B C N O F Ne Na Mg Al Si P S Cl Ar K Ca
	Sc Ti V Cr Mn Fe Co Ni Cu Zn Ga Ge As Se Br Kr Rb Sr Y Zr
	Nb Mo Tc Ru Rh Pd Ag Cd In Sn Sb Te I Xe Cs Ba La Ce Pr Nd
	Pm Sm Eu Gd Tb Dy Ho Er Tm Yb Lu Hf Ta W Re Os Ir Pt Au Hg
	Tl Pb Bi Po At Rn Fr Ra Ac Th Pa U Np Pu Am`)

var atomicNumber = func() map[string]int {
	m := make(map[string]int, len(symbols))
	for i, s := range symbols {
		m[s] = i + 1
	}
	return m
}()

// family describes when an element emits a line family and how its energy
// is fitted: rydberg*(Z-screening)^2 keV for principal lines, or ratio times
// the energy of base for satellites
type family struct {
	minZ      int
	rydberg   float64
	screening float64
	base      string
	ratio     float64
}

var families = map[string]family{
	"Ka":  {minZ: 3, rydberg: 10.2e-3, screening: 1},
	"Kb":  {minZ: 11, rydberg: 12.09e-3, screening: 1.85},
	"La":  {minZ: 20, rydberg: 1.889e-3, screening: 7.4},
	"Lb1": {minZ: 20, base: "La", ratio: 1.09},
	"Lb3": {minZ: 20, base: "La", ratio: 1.13},
	"Ll":  {minZ: 20, base: "La", ratio: 0.89},
	"Ln":  {minZ: 20, base: "La", ratio: 0.95},
	"Lb2": {minZ: 37, base: "La", ratio: 1.12},
	"Lg1": {minZ: 37, base: "La", ratio: 1.28},
	"Lg2": {minZ: 37, base: "La", ratio: 1.30},
	"Lg3": {minZ: 37, base: "La", ratio: 1.31},
	"Ma":  {minZ: 57, rydberg: 0.661e-3, screening: 22.3},
	"Mb":  {minZ: 57, base: "Ma", ratio: 1.04},
	"Mg":  {minZ: 57, base: "Ma", ratio: 1.10},
	"Mz":  {minZ: 57, base: "Ma", ratio: 0.80},
}

// Measured line energies in keV for the elements commonly quantified in TEM EDS
var measured = map[string]map[string]float64{
	"C":  {"Ka": 0.2774},
	"N":  {"Ka": 0.3924},
	"O":  {"Ka": 0.5249},
	"F":  {"Ka": 0.6768},
	"Na": {"Ka": 1.0410, "Kb": 1.0711},
	"Mg": {"Ka": 1.2536, "Kb": 1.3022},
	"Al": {"Ka": 1.4865, "Kb": 1.5575},
	"Si": {"Ka": 1.7397, "Kb": 1.8359},
	"P":  {"Ka": 2.0133, "Kb": 2.1390},
	"S":  {"Ka": 2.3072, "Kb": 2.4640},
	"Cl": {"Ka": 2.6224, "Kb": 2.8156},
	"K":  {"Ka": 3.3138, "Kb": 3.5896},
	"Ca": {"Ka": 3.6917, "Kb": 4.0127, "La": 0.3413},
	"Ti": {"Ka": 4.5109, "Kb": 4.9318, "La": 0.4522},
	"V":  {"Ka": 4.9522, "Kb": 5.4273, "La": 0.5113},
	"Cr": {"Ka": 5.4147, "Kb": 5.9467, "La": 0.5728},
	"Mn": {"Ka": 5.8987, "Kb": 6.4904, "La": 0.6374},
	"Fe": {"Ka": 6.4039, "Kb": 7.0580, "La": 0.7050},
	"Co": {"Ka": 6.9303, "Kb": 7.6494, "La": 0.7762},
	"Ni": {"Ka": 7.4781, "Kb": 8.2647, "La": 0.8515},
	"Cu": {"Ka": 8.0478, "Kb": 8.9053, "La": 0.9297, "Lb1": 0.9498},
	"Zn": {"Ka": 8.6389, "Kb": 9.5720, "La": 1.0116, "Lb1": 1.0347},
	"Ga": {"Ka": 9.2517, "Kb": 10.2642, "La": 1.0980},
	"Ge": {"Ka": 9.8864, "Kb": 10.9823, "La": 1.1885},
	"As": {"Ka": 10.5437, "Kb": 11.7262, "La": 1.2819},
	"Sr": {"Ka": 14.1650, "La": 1.8065},
	"Zr": {"Ka": 15.7750, "La": 2.0424, "Lb1": 2.1244},
	"Nb": {"Ka": 16.6151, "La": 2.1659},
	"Mo": {"Ka": 17.4793, "La": 2.2932, "Lb1": 2.3948},
	"Ag": {"Ka": 22.1629, "La": 2.9843, "Lb1": 3.1509},
	"Sn": {"Ka": 25.2713, "La": 3.4435, "Lb1": 3.6628},
	"Ba": {"La": 4.4663, "Lb1": 4.8275},
	"La": {"La": 4.6510, "Lb1": 5.0421},
	"Ce": {"La": 4.8402, "Lb1": 5.2622},
	"Hf": {"La": 7.8995, "Ma": 1.6446},
	"Ta": {"La": 8.1461, "Ma": 1.7101},
	"W":  {"La": 8.3976, "Lb1": 9.6724, "Ma": 1.7754},
	"Pt": {"La": 9.4421, "Lb1": 11.0707, "Ma": 2.0505},
	"Au": {"La": 9.7133, "Lb1": 11.4423, "Ma": 2.1229},
	"Pb": {"La": 10.5512, "Lb1": 12.6137, "Ma": 2.3455},
}
