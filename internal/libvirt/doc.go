// Package libvirt provides structured, read-only access to libvirt.
//
// Two pieces live here:
//   - Domain XML parsing with libvirt.org/go/libvirtxml. vmctl asks virsh for
//     a domain definition ("virsh dumpxml") and reads the backing disk from
//     the parsed document instead of scraping text.
//   - A daemon probe over the local Unix socket, built on
//     github.com/digitalocean/go-libvirt, used by "vmctl check".
//
// Connection Management:
//
//	client, err := libvirt.Connect(ctx, socket, 0)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	if err := client.Ping(); err != nil {
//	    return err
//	}
//	info, err := client.Info()
//
// Domain Parsing:
//
//	dom, err := libvirt.ParseDomain(xml)
//	if err != nil {
//	    return err
//	}
//	disk, err := libvirt.BackingDisk(dom)
//
// Nothing in this package changes libvirt state. Mutations go through the
// virsh, qemu-img and virt-clone tools (see internal/virsh) so that dry-run
// mode and command tracing apply to them.
package libvirt
