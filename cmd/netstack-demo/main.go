// Command netstack-demo mirrors one network namespace's rtnetlink state and
// prints a one-line summary per event to stdout.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"

	"github.com/m-lab/go/flagx"
	"github.com/m-lab/go/prometheusx"
	"github.com/m-lab/go/rtx"

	"github.com/m-lab/netstack"
	"github.com/m-lab/netstack/rtnl"
)

func init() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
}

var (
	namespace     = flag.String("namespace", "", "Network namespace to mirror: empty for the current namespace, a PID, or a /var/run/netns/<name> path")
	promAddr      = flag.String("prom", ":9090", "Prometheus metrics export address and port")
	noLinks       = flag.Bool("no-links", false, "Do not track links")
	noAddrs       = flag.Bool("no-addrs", false, "Do not track addresses")
	noRoutes      = flag.Bool("no-routes", false, "Do not track routes")
	noNeighs      = flag.Bool("no-neighs", false, "Do not track neighbors")
	initialEvents = flag.String("initial-events", "block", "Initial dump policy: block, async, or none")
)

func parseInitialEvents(s string) netstack.InitialEvents {
	switch s {
	case "async":
		return netstack.InitialEventsAsync
	case "none":
		return netstack.InitialEventsNone
	default:
		return netstack.InitialEventsBlock
	}
}

func summarize(ev *netstack.Event) {
	verb := "NEW"
	if ev.Deleted {
		verb = "DEL"
	}
	switch rec := ev.Record.(type) {
	case *rtnl.Link:
		name, _ := rec.Name()
		fmt.Printf("[%d] %s %s %s\n", rec.Index(), name, verb, rec.OperStateOrUnknown())
	case *rtnl.Addr:
		ip, _ := rec.Address()
		fmt.Printf("[%d] %s %s/%d\n", rec.Index(), verb, ip, rec.PrefixLen())
	case *rtnl.Route:
		dst, _ := rec.Dst()
		fmt.Printf("[table %d] %s %s/%d via %s\n", rec.Table(), verb, dst, rec.DstLen(), rec.Type())
	case *rtnl.Neigh:
		dst, _ := rec.Dst()
		fmt.Printf("[%d] %s %s %s\n", rec.Index(), verb, dst, rec.State())
	}
}

func main() {
	flag.Parse()
	flagx.ArgsFromEnv(flag.CommandLine)

	promSrv := prometheusx.MustStartPrometheus(*promAddr)
	defer promSrv.Shutdown(nil)

	opts := netstack.Options{
		Namespace:     *namespace,
		InitialEvents: parseInitialEvents(*initialEvents),
		NoTrackLinks:  *noLinks, NoTrackAddrs: *noAddrs,
		NoTrackRoutes: *noRoutes, NoTrackNeighs: *noNeighs,
		OnLink:  summarize,
		OnAddr:  summarize,
		OnRoute: summarize,
		OnNeigh: summarize,
	}

	ns, err := netstack.Create(opts)
	rtx.Must(err, "could not create netstack")
	defer ns.Close()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt)
	<-sigs
}
