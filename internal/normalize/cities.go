package normalize

// indianaCities maps lowercase city names to coordinates, used as a fallback
// when an address cannot be geocoded but a known city appears in the event's
// location text or title.
var indianaCities = map[string][2]float64{
	"indianapolis":   {39.7684, -86.1581},
	"fort wayne":     {41.0793, -85.1394},
	"evansville":     {37.9747, -87.5558},
	"south bend":     {41.6764, -86.2520},
	"carmel":         {39.9784, -86.1180},
	"fishers":        {39.9567, -86.0139},
	"bloomington":    {39.1653, -86.5264},
	"west lafayette": {40.4259, -86.9081},
	"lafayette":      {40.4167, -86.8753},
	"muncie":         {40.1934, -85.3864},
	"terre haute":    {39.4667, -87.4139},
	"kokomo":         {40.4864, -86.1336},
	"anderson":       {40.1053, -85.6803},
	"noblesville":    {40.0456, -86.0086},
	"westfield":      {40.0428, -86.1275},
	"greenwood":      {39.6136, -86.1067},
	"columbus":       {39.2014, -85.9214},
	"jeffersonville": {38.2776, -85.7372},
	"new albany":     {38.2856, -85.8241},
	"valparaiso":     {41.4731, -87.0611},
	"hammond":        {41.5833, -87.5000},
	"gary":           {41.5934, -87.3464},
	"elkhart":        {41.6820, -85.9767},
	"mishawaka":      {41.6614, -86.1586},
	"goshen":         {41.5823, -85.8347},
	"plainfield":     {39.7042, -86.3994},
	"greenfield":     {39.7851, -85.7694},
	"richmond":       {39.8289, -84.8902},
	"marion":         {40.5584, -85.6591},
	"michigan city":  {41.7075, -86.8950},
	"crown point":    {41.4170, -87.3653},
	"merrillville":   {41.4828, -87.3328},
	"odon":           {38.8417, -86.9917},
	"newberry":       {38.9167, -87.0333},
	"french lick":    {38.5489, -86.6197},
	"bedford":        {38.8611, -86.4872},
	"jasper":         {38.3914, -86.9311},
	"vincennes":      {38.6773, -87.5286},
	"scottsburg":     {38.6856, -85.7703},
	"seymour":        {38.9592, -85.8903},
}
